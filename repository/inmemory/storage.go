package storage

import (
	"context"
	"sort"
	"sync"
	"taskplanner/internal/domain/errors"
	"taskplanner/internal/domain/models"

	"github.com/google/uuid"
)

// Storage — запасное хранилище в памяти на случай недоступной БД.
// Семантика повторяет repository/db, включая видимость только своих задач.
type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]models.Task
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		tasks: make(map[string]models.Task),
	}
}

func (s *Storage) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errors.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) GetUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = uuid.New().String()
	task.Deleted = false
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) GetTaskByID(_ context.Context, userID string, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, exists := s.tasks[id]
	if !exists || task.Deleted || task.UserID != userID {
		return nil, errors.ErrTaskNotFound
	}
	return &task, nil
}

func (s *Storage) GetTasks(_ context.Context, userID string, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := []models.Task{}
	for _, t := range s.tasks {
		if t.Deleted || t.UserID != userID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		tasks = append(tasks, t)
	}
	sortTasks(tasks, filter.SortBy, filter.Order)
	return tasks, nil
}

func (s *Storage) UpdateTask(_ context.Context, userID string, id string, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.tasks[id]
	if !exists || existing.Deleted || existing.UserID != userID {
		return errors.ErrTaskNotFound
	}
	task.ID = id
	task.UserID = userID
	s.tasks[id] = *task
	return nil
}

func (s *Storage) DeleteTask(_ context.Context, userID string, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, exists := s.tasks[id]
	if !exists || task.Deleted || task.UserID != userID {
		return nil, errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return &task, nil
}

// Строковые поля сравниваются лексикографически, как это делает
// varchar-колонка в БД: оба хранилища сортируют одинаково.
func sortTasks(tasks []models.Task, sortBy string, order string) {
	less := func(a, b models.Task) bool {
		switch sortBy {
		case "createdAt":
			return a.CreatedAt.Before(b.CreatedAt)
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "title":
			return a.Title < b.Title
		case "status":
			return a.Status < b.Status
		case "priority":
			return a.Priority < b.Priority
		default:
			return a.DueDate.Before(b.DueDate)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if order == "desc" {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}
