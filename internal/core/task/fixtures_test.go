// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sprinto/internal/core/reference"
	"github.com/taibuivan/sprinto/internal/core/task"
	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/sec"
	"github.com/taibuivan/sprinto/internal/system/activity"
)

const (
	adminID    = "0195f0a0-0000-7000-8000-000000000001"
	managerID  = "0195f0a0-0000-7000-8000-000000000002"
	memberID   = "0195f0a0-0000-7000-8000-000000000003"
	outsiderID = "0195f0a0-0000-7000-8000-000000000004"
	projectID  = "0195f0a0-0000-7000-8000-0000000000a1"
)

// # Fakes

type memoryTasks struct {
	tasks   map[string]*task.Task
	filter  task.Filter
	statsBy [2]string
}

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{tasks: map[string]*task.Task{}}
}

func (repo *memoryTasks) List(_ context.Context, filter task.Filter) ([]*task.Task, error) {
	repo.filter = filter
	tasks := []*task.Task{}
	for _, stored := range repo.tasks {
		tasks = append(tasks, stored)
	}
	return tasks, nil
}

func (repo *memoryTasks) ListByProject(_ context.Context, projectID string) ([]*task.Task, error) {
	return repo.List(context.Background(), task.Filter{ProjectID: projectID})
}

func (repo *memoryTasks) FindByID(_ context.Context, id string) (*task.Task, error) {
	stored, ok := repo.tasks[id]
	if !ok {
		return nil, apperr.NotFound("Task")
	}
	copied := *stored
	return &copied, nil
}

func (repo *memoryTasks) Create(_ context.Context, created *task.Task) error {
	copied := *created
	repo.tasks[created.ID] = &copied
	return nil
}

func (repo *memoryTasks) Update(_ context.Context, updated *task.Task) error {
	copied := *updated
	repo.tasks[updated.ID] = &copied
	return nil
}

func (repo *memoryTasks) Delete(_ context.Context, id string) error {
	delete(repo.tasks, id)
	return nil
}

func (repo *memoryTasks) Stats(_ context.Context, viewerID, userID string) (*task.Stats, error) {
	repo.statsBy = [2]string{viewerID, userID}
	return &task.Stats{Total: len(repo.tasks)}, nil
}

type fakeDirectory struct {
	users    map[string]*reference.User
	projects map[string]*reference.ProjectAccess
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[string]*reference.User{
			adminID:    {ID: adminID, Name: "Ada"},
			managerID:  {ID: managerID, Name: "Max"},
			memberID:   {ID: memberID, Name: "Mia"},
			outsiderID: {ID: outsiderID, Name: "Oz"},
		},
		projects: map[string]*reference.ProjectAccess{
			projectID: {
				Project:   reference.Project{ID: projectID, Name: "Launch", Color: "#6366f1"},
				ManagerID: managerID,
				MemberIDs: []string{managerID, memberID},
			},
		},
	}
}

func (directory *fakeDirectory) User(_ context.Context, id string) (*reference.User, error) {
	if user, ok := directory.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (directory *fakeDirectory) Project(_ context.Context, id string) (*reference.ProjectAccess, error) {
	if project, ok := directory.projects[id]; ok {
		return project, nil
	}
	return nil, apperr.NotFound("Project")
}

type published struct {
	Type    string
	Payload map[string]any
}

type fakePublisher struct {
	events []published
}

func (publisher *fakePublisher) Publish(_ context.Context, eventType string, payload any) {
	encoded, _ := json.Marshal(payload)
	decoded := map[string]any{}
	_ = json.Unmarshal(encoded, &decoded)
	publisher.events = append(publisher.events, published{Type: eventType, Payload: decoded})
}

type fakeActivity struct {
	entries []activity.Entry
}

func (recorder *fakeActivity) Record(_ context.Context, entry activity.Entry) {
	recorder.entries = append(recorder.entries, entry)
}

// # Fixture

type fixture struct {
	repo      *memoryTasks
	directory *fakeDirectory
	publisher *fakePublisher
	activity  *fakeActivity
	service   *task.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		repo:      newMemoryTasks(),
		directory: newDirectory(),
		publisher: &fakePublisher{},
		activity:  &fakeActivity{},
	}
	fx.service = task.NewService(fx.repo, fx.directory, fx.publisher, fx.activity, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return fx
}

func claimsFor(id string, role sec.UserRole) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: id, Role: string(role), Class: sec.ClassAccess}
}

// seed creates a task assigned to memberID as the manager.
func (fx *fixture) seed(t *testing.T) *task.Task {
	t.Helper()
	assignee := memberID
	created, err := fx.service.Create(context.Background(), claimsFor(managerID, sec.RoleManager), task.CreateInput{
		Title:      "Write release notes",
		ProjectID:  projectID,
		AssigneeID: &assignee,
	})
	require.NoError(t, err)
	fx.publisher.events = nil
	fx.activity.entries = nil
	return created
}
