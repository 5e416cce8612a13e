// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package project_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sprinto/internal/core/project"
	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/live"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
	"github.com/taibuivan/sprinto/pkg/pointer"
)

const (
	adminID    = "0195f0a0-0000-7000-8000-000000000001"
	managerID  = "0195f0a0-0000-7000-8000-000000000002"
	memberID   = "0195f0a0-0000-7000-8000-000000000003"
	outsiderID = "0195f0a0-0000-7000-8000-000000000004"
)

// # Fakes

type memoryProjects struct {
	projects map[string]*project.Project
	viewer   string
	replaced bool
}

func (repo *memoryProjects) List(_ context.Context, viewerID string) ([]*project.Project, error) {
	repo.viewer = viewerID
	projects := []*project.Project{}
	for _, stored := range repo.projects {
		if viewerID == "" || stored.Allows(viewerID) {
			projects = append(projects, stored)
		}
	}
	return projects, nil
}

func (repo *memoryProjects) FindByID(_ context.Context, id string) (*project.Project, error) {
	stored, ok := repo.projects[id]
	if !ok {
		return nil, apperr.NotFound("Project")
	}
	copied := *stored
	copied.Members = slices.Clone(stored.Members)
	return &copied, nil
}

func (repo *memoryProjects) Create(_ context.Context, created *project.Project) error {
	copied := *created
	repo.projects[created.ID] = &copied
	return nil
}

func (repo *memoryProjects) Update(_ context.Context, updated *project.Project, replaceMembers bool) error {
	repo.replaced = replaceMembers
	copied := *updated
	repo.projects[updated.ID] = &copied
	return nil
}

func (repo *memoryProjects) Delete(_ context.Context, id string) error {
	delete(repo.projects, id)
	return nil
}

func (repo *memoryProjects) AddMember(_ context.Context, projectID, userID string) error {
	stored := repo.projects[projectID]
	stored.Members = append(stored.Members, reference.User{ID: userID})
	return nil
}

func (repo *memoryProjects) RemoveMember(_ context.Context, projectID, userID string) error {
	stored := repo.projects[projectID]
	stored.Members = slices.DeleteFunc(stored.Members, func(member reference.User) bool { return member.ID == userID })
	return nil
}

type fakeBoard struct{}

func (fakeBoard) ListByProject(_ context.Context, projectID string) ([]*task.Task, error) {
	return []*task.Task{{ID: "t1", ProjectID: projectID, Title: "First"}}, nil
}

type fakeDirectory struct{}

func (fakeDirectory) User(_ context.Context, id string) (*reference.User, error) {
	names := map[string]string{adminID: "Ada", managerID: "Max", memberID: "Mia", outsiderID: "Oz"}
	if name, ok := names[id]; ok {
		return &reference.User{ID: id, Name: name}, nil
	}
	return nil, apperr.NotFound("User")
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
	repo      *memoryProjects
	publisher *fakePublisher
	activity  *fakeActivity
	service   *project.Service
}

func newFixture() *fixture {
	fx := &fixture{
		repo:      &memoryProjects{projects: map[string]*project.Project{}},
		publisher: &fakePublisher{},
		activity:  &fakeActivity{},
	}
	fx.service = project.NewService(fx.repo, fakeBoard{}, fakeDirectory{}, fx.publisher, fx.activity, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return fx
}

func claimsFor(id string, role sec.UserRole) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: id, Role: string(role), Class: sec.ClassAccess}
}

// seed creates a project managed by managerID with memberID on it.
func (fx *fixture) seed(t *testing.T) *project.Project {
	t.Helper()
	created, err := fx.service.Create(context.Background(), claimsFor(managerID, sec.RoleManager), project.CreateInput{
		Name:      "Q3 Launch",
		MemberIDs: []string{memberID},
	})
	require.NoError(t, err)
	fx.publisher.events = nil
	fx.activity.entries = nil
	return created
}

// # Tests

/*
TestService_Create verifies creator membership, defaults and the announcement.
*/
func TestService_Create(t *testing.T) {
	fx := newFixture()
	created, err := fx.service.Create(context.Background(), claimsFor(managerID, sec.RoleManager), project.CreateInput{
		Name:      "  Q3 Launch ",
		MemberIDs: []string{memberID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Q3 Launch", created.Name)
	assert.Equal(t, "q3-launch", created.Slug)
	assert.Equal(t, project.DefaultColor, created.Color)
	assert.Equal(t, project.StatusActive, created.Status)
	assert.Equal(t, managerID, created.Manager.ID)
	assert.ElementsMatch(t, []string{memberID, managerID}, created.MemberIDs())

	require.Len(t, fx.activity.entries, 1)
	assert.Equal(t, "Created project", fx.activity.entries[0].Action)
	assert.Equal(t, created.ID, pointer.Val(fx.activity.entries[0].ProjectID))

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, live.ProjectCreated, fx.publisher.events[0].Type)
	assert.Equal(t, "Max", fx.publisher.events[0].Payload["user"])

	again, err := fx.service.Create(context.Background(), claimsFor(managerID, sec.RoleManager), project.CreateInput{
		Name:      "Solo",
		MemberIDs: []string{managerID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{managerID}, again.MemberIDs())
}

/*
TestService_Access verifies who can read and who can change a project.
*/
func TestService_Access(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	seeded := fx.seed(t)

	for _, reader := range []*sec.AuthClaims{claimsFor(adminID, sec.RoleAdmin), claimsFor(managerID, sec.RoleManager), claimsFor(memberID, sec.RoleUser)} {
		_, tasks, err := fx.service.Get(ctx, reader, seeded.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	}

	_, _, err := fx.service.Get(ctx, claimsFor(outsiderID, sec.RoleManager), seeded.ID)
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "Access denied", apperr.As(err).Message)

	_, err = fx.service.Update(ctx, claimsFor(outsiderID, sec.RoleManager), seeded.ID, project.UpdateInput{Name: pointer.To("x")})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, http.StatusForbidden, apperr.As(err).HTTPStatus)
	assert.Equal(t, "Not authorized to update this project", apperr.As(err).Message)

	_, err = fx.service.Update(ctx, claimsFor(adminID, sec.RoleAdmin), seeded.ID, project.UpdateInput{Status: pointer.To(project.StatusArchived)})
	assert.NoError(t, err)

	projects, err := fx.service.List(ctx, claimsFor(outsiderID, sec.RoleUser))
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Equal(t, outsiderID, fx.repo.viewer)

	_, err = fx.service.List(ctx, claimsFor(adminID, sec.RoleAdmin))
	require.NoError(t, err)
	assert.Empty(t, fx.repo.viewer)
}

/*
TestService_Update verifies slug refresh, member replacement and the announcement.
*/
func TestService_Update(t *testing.T) {
	fx := newFixture()
	seeded := fx.seed(t)

	updated, err := fx.service.Update(context.Background(), claimsFor(managerID, sec.RoleManager), seeded.ID, project.UpdateInput{
		Name:      pointer.To("Café Roadmap"),
		MemberIDs: []string{outsiderID},
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe-roadmap", updated.Slug)
	assert.Equal(t, []string{outsiderID}, updated.MemberIDs())
	assert.True(t, fx.repo.replaced)

	_, err = fx.service.Update(context.Background(), claimsFor(managerID, sec.RoleManager), seeded.ID, project.UpdateInput{Description: pointer.To("d")})
	require.NoError(t, err)
	assert.False(t, fx.repo.replaced)

	require.Len(t, fx.activity.entries, 2)
	assert.Equal(t, "Updated project", fx.activity.entries[0].Action)
	assert.Equal(t, live.ProjectUpdated, fx.publisher.events[0].Type)
}

/*
TestService_Delete verifies the detached activity entry and the delete event.
*/
func TestService_Delete(t *testing.T) {
	fx := newFixture()
	seeded := fx.seed(t)

	require.NoError(t, fx.service.Delete(context.Background(), claimsFor(adminID, sec.RoleAdmin), seeded.ID))

	require.Len(t, fx.activity.entries, 1)
	assert.Nil(t, fx.activity.entries[0].ProjectID)
	assert.Equal(t, "Deleted project", fx.activity.entries[0].Action)

	require.Len(t, fx.publisher.events, 1)
	event := fx.publisher.events[0]
	assert.Equal(t, live.ProjectDeleted, event.Type)
	assert.Equal(t, seeded.ID, event.Payload["projectId"])
	assert.Equal(t, "Q3 Launch", event.Payload["projectName"])
	assert.Equal(t, "Ada", event.Payload["user"])

	assert.True(t, apperr.IsNotFound(fx.service.Delete(context.Background(), claimsFor(adminID, sec.RoleAdmin), seeded.ID)))
}

/*
TestService_Members verifies duplicate detection and removal.
*/
func TestService_Members(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	seeded := fx.seed(t)
	manager := claimsFor(managerID, sec.RoleManager)

	_, err := fx.service.AddMember(ctx, manager, seeded.ID, memberID)
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, "User is already a member", apperr.As(err).Message)
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)

	updated, err := fx.service.AddMember(ctx, manager, seeded.ID, outsiderID)
	require.NoError(t, err)
	assert.True(t, updated.HasMember(outsiderID))

	require.NoError(t, fx.service.RemoveMember(ctx, manager, seeded.ID, memberID))
	reloaded, err := fx.repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasMember(memberID))

	err = fx.service.RemoveMember(ctx, claimsFor(outsiderID, sec.RoleManager), seeded.ID, managerID)
	assert.Equal(t, http.StatusForbidden, apperr.As(err).HTTPStatus)
}

/*
TestHandler_Routes verifies role gates and request validation.
*/
func TestHandler_Routes(t *testing.T) {
	fx := newFixture()
	seeded := fx.seed(t)
	router := project.NewHandler(fx.service).Routes()

	serve := func(method, path, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
		request := httptest.NewRequest(method, path, strings.NewReader(body))
		if claims != nil {
			request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	admin := claimsFor(adminID, sec.RoleAdmin)
	manager := claimsFor(managerID, sec.RoleManager)
	member := claimsFor(memberID, sec.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/", "", nil).Code)

	list := serve(http.MethodGet, "/", "", member)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"count":1`)
	assert.Contains(t, list.Body.String(), `"taskCounts"`)

	detail := serve(http.MethodGet, "/"+seeded.ID, "", member)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), `"tasks"`)

	assert.Equal(t, http.StatusForbidden, serve(http.MethodPost, "/", `{"name":"x"}`, member).Code)
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/", `{"name":"","color":"red"}`, manager).Code)
	assert.Equal(t, http.StatusCreated, serve(http.MethodPost, "/", `{"name":"New","color":"#abcdef"}`, manager).Code)

	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPut, "/"+seeded.ID, `{"status":"paused"}`, manager).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodPut, "/"+seeded.ID, `{"status":"completed"}`, manager).Code)

	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/"+seeded.ID+"/members", `{"userId":"nope"}`, manager).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "/"+seeded.ID+"/members", `{"userId":"`+outsiderID+`"}`, manager).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodDelete, "/"+seeded.ID+"/members/"+outsiderID, "", manager).Code)

	assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, "/"+seeded.ID, "", manager).Code)
	deleted := serve(http.MethodDelete, "/"+seeded.ID, "", admin)
	assert.Equal(t, http.StatusOK, deleted.Code)
	assert.Contains(t, deleted.Body.String(), "Project deleted")
}
