// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sprinto/internal/core/comment"
	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
)

const (
	adminID   = "0195f0a0-0000-7000-8000-000000000001"
	managerID = "0195f0a0-0000-7000-8000-000000000002"
	authorID  = "0195f0a0-0000-7000-8000-000000000003"
	otherID   = "0195f0a0-0000-7000-8000-000000000004"
	taskID    = "0195f0a0-0000-7000-8000-0000000000b1"
	projectID = "0195f0a0-0000-7000-8000-0000000000a1"
)

// # Fakes

type memoryComments struct {
	comments map[string]*comment.Comment
	clock    time.Time
}

func (repo *memoryComments) ListByTask(_ context.Context, taskID string) ([]*comment.Comment, error) {
	thread := []*comment.Comment{}
	for _, stored := range repo.comments {
		if stored.TaskID == taskID {
			thread = append(thread, stored)
		}
	}
	return thread, nil
}

func (repo *memoryComments) FindByID(_ context.Context, id string) (*comment.Comment, error) {
	stored, ok := repo.comments[id]
	if !ok {
		return nil, apperr.NotFound("Comment")
	}
	copied := *stored
	return &copied, nil
}

func (repo *memoryComments) Create(_ context.Context, created *comment.Comment) error {
	repo.clock = repo.clock.Add(time.Second)
	created.CreatedAt, created.UpdatedAt = repo.clock, repo.clock
	copied := *created
	repo.comments[created.ID] = &copied
	return nil
}

func (repo *memoryComments) UpdateText(_ context.Context, id, text string) error {
	stored, ok := repo.comments[id]
	if !ok {
		return apperr.NotFound("Comment")
	}
	stored.Text, stored.Edited = text, true
	return nil
}

func (repo *memoryComments) Delete(_ context.Context, id string) error {
	delete(repo.comments, id)
	return nil
}

type fakeTasks struct{}

func (fakeTasks) Get(_ context.Context, id string) (*task.Task, error) {
	if id != taskID {
		return nil, apperr.NotFound("Task")
	}
	return &task.Task{ID: taskID, Title: "Fix login", ProjectID: projectID}, nil
}

type fakeDirectory struct{}

func (fakeDirectory) User(_ context.Context, id string) (*reference.User, error) {
	return &reference.User{ID: id, Name: "name-" + id[len(id)-1:]}, nil
}

func (fakeDirectory) Project(context.Context, string) (*reference.ProjectAccess, error) {
	return nil, apperr.NotFound("Project")
}

type published struct {
	Type    string
	Payload map[string]any
}

type fakePublisher struct{ events []published }

func (publisher *fakePublisher) Publish(_ context.Context, eventType string, payload any) {
	encoded, _ := json.Marshal(payload)
	decoded := map[string]any{}
	_ = json.Unmarshal(encoded, &decoded)
	publisher.events = append(publisher.events, published{Type: eventType, Payload: decoded})
}

type fakeActivity struct{ entries []activity.Entry }

func (recorder *fakeActivity) Record(_ context.Context, entry activity.Entry) {
	recorder.entries = append(recorder.entries, entry)
}

type fixture struct {
	repo      *memoryComments
	publisher *fakePublisher
	activity  *fakeActivity
	service   *comment.Service
}

func newFixture() *fixture {
	fx := &fixture{
		repo:      &memoryComments{comments: map[string]*comment.Comment{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		publisher: &fakePublisher{},
		activity:  &fakeActivity{},
	}
	fx.service = comment.NewService(fx.repo, fakeTasks{}, fakeDirectory{}, fx.publisher, fx.activity, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return fx
}

func claimsFor(id string, role sec.UserRole) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: id, Role: string(role), Class: sec.ClassAccess}
}

// # Tests

/*
TestService_Add verifies trimming, the activity entry and the comment_added payload.
*/
func TestService_Add(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	_, err := fx.service.Add(ctx, claimsFor(authorID, sec.RoleUser), taskID, "   ")
	assert.Equal(t, "Comment text is required", apperr.As(err).Message)

	_, err = fx.service.Add(ctx, claimsFor(authorID, sec.RoleUser), otherID, "hello")
	assert.True(t, apperr.IsNotFound(err))

	created, err := fx.service.Add(ctx, claimsFor(authorID, sec.RoleUser), taskID, "  Looks good  ")
	require.NoError(t, err)
	assert.Equal(t, "Looks good", created.Text)
	assert.False(t, created.Edited)

	require.Len(t, fx.activity.entries, 1)
	assert.Equal(t, "Commented on task", fx.activity.entries[0].Action)
	assert.Equal(t, "Fix login", fx.activity.entries[0].Target)

	require.Len(t, fx.publisher.events, 1)
	event := fx.publisher.events[0]
	assert.Equal(t, live.CommentAdded, event.Type)
	assert.Equal(t, taskID, event.Payload["taskId"])
	assert.Equal(t, "Fix login", event.Payload["taskTitle"])
	assert.Equal(t, "name-3", event.Payload["user"])
	assert.Contains(t, event.Payload, "comment")
}

/*
TestService_EditAndDelete verifies the author, admin and manager permissions.
*/
func TestService_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	created, err := fx.service.Add(ctx, claimsFor(authorID, sec.RoleUser), taskID, "first")
	require.NoError(t, err)
	fx.publisher.events = nil

	_, err = fx.service.Edit(ctx, claimsFor(managerID, sec.RoleManager), created.ID, "hijack")
	assert.Equal(t, "Not authorized to edit this comment", apperr.As(err).Message)

	edited, err := fx.service.Edit(ctx, claimsFor(authorID, sec.RoleUser), created.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Text)
	assert.True(t, edited.Edited)

	_, err = fx.service.Edit(ctx, claimsFor(adminID, sec.RoleAdmin), created.ID, "moderated")
	require.NoError(t, err)

	err = fx.service.Delete(ctx, claimsFor(otherID, sec.RoleUser), created.ID)
	assert.Equal(t, "Not authorized to delete this comment", apperr.As(err).Message)

	require.NoError(t, fx.service.Delete(ctx, claimsFor(managerID, sec.RoleManager), created.ID))
	assert.Empty(t, fx.repo.comments)

	require.Len(t, fx.publisher.events, 3)
	assert.Equal(t, live.CommentEdited, fx.publisher.events[0].Type)
	assert.Equal(t, taskID, fx.publisher.events[0].Payload["taskId"])
	assert.Equal(t, live.CommentDeleted, fx.publisher.events[2].Type)
	assert.Equal(t, created.ID, fx.publisher.events[2].Payload["commentId"])
}

/*
TestHandler_Routes verifies the thread endpoints end to end.
*/
func TestHandler_Routes(t *testing.T) {
	fx := newFixture()
	router := comment.NewHandler(fx.service).Routes()

	serve := func(method, path, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
		request := httptest.NewRequest(method, path, strings.NewReader(body))
		if claims != nil {
			request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	author := claimsFor(authorID, sec.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/"+taskID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/"+otherID, "", author).Code)

	empty := serve(http.MethodPost, "/"+taskID, `{"text":""}`, author)
	assert.Equal(t, http.StatusBadRequest, empty.Code)
	assert.Contains(t, empty.Body.String(), "Comment text is required")

	tooLong := serve(http.MethodPost, "/"+taskID, `{"text":"`+strings.Repeat("a", comment.MaxTextLength+1)+`"}`, author)
	assert.Equal(t, http.StatusBadRequest, tooLong.Code)

	require.Equal(t, http.StatusCreated, serve(http.MethodPost, "/"+taskID, `{"text":"one"}`, author).Code)
	created := serve(http.MethodPost, "/"+taskID, `{"text":"two"}`, author)
	require.Equal(t, http.StatusCreated, created.Code)

	var body struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &body))

	list := serve(http.MethodGet, "/"+taskID, "", author)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"count":2`)

	assert.Equal(t, http.StatusOK, serve(http.MethodPut, "/"+body.Comment.ID, `{"text":"edited"}`, author).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodDelete, "/"+body.Comment.ID, "", author).Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodDelete, "/"+body.Comment.ID, "", author).Code)
}
