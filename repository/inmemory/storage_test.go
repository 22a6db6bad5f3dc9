package storage

import (
	"context"
	"taskplanner/internal/domain/errors"
	"taskplanner/internal/domain/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStorage(t *testing.T) {
	s := NewStorage()
	assert.NotNil(t, s)
	assert.NotNil(t, s.users)
	assert.NotNil(t, s.tasks)
}

func TestStorageCreateUser(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.User
		user     models.User
		want     struct {
			err error
		}
	}{
		{
			name:     "create in empty storage",
			existing: nil,
			user:     models.User{Username: "alice", Email: "alice@x.com", Password: "hash"},
			want: struct {
				err error
			}{
				err: nil,
			},
		},
		{
			name: "duplicate username",
			existing: []models.User{
				{Username: "alice", Email: "old@x.com", Password: "hash"},
			},
			user: models.User{Username: "alice", Email: "new@x.com", Password: "hash"},
			want: struct {
				err error
			}{
				err: errors.ErrUserAlreadyExists,
			},
		},
		{
			name: "duplicate email",
			existing: []models.User{
				{Username: "alice", Email: "alice@x.com", Password: "hash"},
			},
			user: models.User{Username: "bob", Email: "alice@x.com", Password: "hash"},
			want: struct {
				err error
			}{
				err: errors.ErrUserAlreadyExists,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStorage()
			for i := range tt.existing {
				assert.NoError(t, s.CreateUser(&tt.existing[i]))
			}

			err := s.CreateUser(&tt.user)
			assert.Equal(t, tt.want.err, err)
			if err == nil {
				assert.NotEmpty(t, tt.user.ID)
				found, err := s.GetUserByID(tt.user.ID)
				assert.NoError(t, err)
				assert.Equal(t, tt.user.Username, found.Username)
			}
		})
	}
}

func TestStorageGetUserLookups(t *testing.T) {
	s := NewStorage()
	user := models.User{Username: "alice", Email: "alice@x.com", Password: "hash"}
	assert.NoError(t, s.CreateUser(&user))

	byID, err := s.GetUserByID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := s.GetUserByUsername("alice")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := s.GetUserByEmail("alice@x.com")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = s.GetUserByID("missing")
	assert.Equal(t, errors.ErrUserNotFound, err)
	_, err = s.GetUserByUsername("bob")
	assert.Equal(t, errors.ErrUserNotFound, err)
	_, err = s.GetUserByEmail("bob@x.com")
	assert.Equal(t, errors.ErrUserNotFound, err)
}

func newTask(userID, title, status, priority string, due time.Time) models.Task {
	return models.Task{
		UserID:   userID,
		Title:    title,
		Status:   status,
		Priority: priority,
		DueDate:  due,
	}
}

func TestStorageTaskOwnership(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	task := newTask("owner-1", "mine", "pending", "medium", time.Now())
	assert.NoError(t, s.CreateTask(ctx, &task))

	_, err := s.GetTaskByID(ctx, "owner-2", task.ID)
	assert.Equal(t, errors.ErrTaskNotFound, err)

	err = s.UpdateTask(ctx, "owner-2", task.ID, &task)
	assert.Equal(t, errors.ErrTaskNotFound, err)

	_, err = s.DeleteTask(ctx, "owner-2", task.ID)
	assert.Equal(t, errors.ErrTaskNotFound, err)

	got, err := s.GetTaskByID(ctx, "owner-1", task.ID)
	assert.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	foreign, err := s.GetTasks(ctx, "owner-2", models.TaskFilter{})
	assert.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestStorageGetTasksFilterAndSort(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	early := newTask("owner-1", "early", "pending", "low", base)
	late := newTask("owner-1", "late", "completed", "high", base.AddDate(0, 0, 2))
	middle := newTask("owner-1", "middle", "pending", "medium", base.AddDate(0, 0, 1))
	for _, task := range []*models.Task{&late, &early, &middle} {
		assert.NoError(t, s.CreateTask(ctx, task))
	}

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   struct {
			titles []string
		}
	}{
		{
			name:   "default sort is due date ascending",
			filter: models.TaskFilter{},
			want: struct {
				titles []string
			}{
				titles: []string{"early", "middle", "late"},
			},
		},
		{
			name:   "descending order",
			filter: models.TaskFilter{Order: "desc"},
			want: struct {
				titles []string
			}{
				titles: []string{"late", "middle", "early"},
			},
		},
		{
			name:   "unknown order falls back to ascending",
			filter: models.TaskFilter{Order: "sideways"},
			want: struct {
				titles []string
			}{
				titles: []string{"early", "middle", "late"},
			},
		},
		{
			name:   "sort by title",
			filter: models.TaskFilter{SortBy: "title"},
			want: struct {
				titles []string
			}{
				titles: []string{"early", "late", "middle"},
			},
		},
		{
			name:   "unknown sort field falls back to due date",
			filter: models.TaskFilter{SortBy: "nonsense"},
			want: struct {
				titles []string
			}{
				titles: []string{"early", "middle", "late"},
			},
		},
		{
			name:   "status filter",
			filter: models.TaskFilter{Status: "pending"},
			want: struct {
				titles []string
			}{
				titles: []string{"early", "middle"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := s.GetTasks(ctx, "owner-1", tt.filter)
			assert.NoError(t, err)

			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.want.titles, titles)
		})
	}
}

func TestStorageUpdateTask(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	task := newTask("owner-1", "before", "pending", "medium", time.Now())
	assert.NoError(t, s.CreateTask(ctx, &task))

	updated := task
	updated.Title = "after"
	updated.Status = "completed"
	assert.NoError(t, s.UpdateTask(ctx, "owner-1", task.ID, &updated))

	got, err := s.GetTaskByID(ctx, "owner-1", task.ID)
	assert.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "owner-1", got.UserID)

	err = s.UpdateTask(ctx, "owner-1", "missing", &updated)
	assert.Equal(t, errors.ErrTaskNotFound, err)
}

func TestStorageDeleteTask(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	task := newTask("owner-1", "doomed", "pending", "medium", time.Now())
	assert.NoError(t, s.CreateTask(ctx, &task))

	removed, err := s.DeleteTask(ctx, "owner-1", task.ID)
	assert.NoError(t, err)
	assert.Equal(t, "doomed", removed.Title)

	_, err = s.GetTaskByID(ctx, "owner-1", task.ID)
	assert.Equal(t, errors.ErrTaskNotFound, err)

	_, err = s.DeleteTask(ctx, "owner-1", task.ID)
	assert.Equal(t, errors.ErrTaskNotFound, err)
}
