package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/model"
)

// ErrNotFound is returned when a list or task does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

type listRepository interface {
	ListLists(ctx context.Context, userID string) ([]model.List, error)
	GetList(ctx context.Context, userID, listID string) (*model.List, error)
	CreateList(ctx context.Context, list *model.List) error
	UpdateListTitle(ctx context.Context, userID, listID, title string) (*model.List, error)
	DeleteList(ctx context.Context, userID, listID string) (*model.List, error)
	ListTasks(ctx context.Context, listID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, listID, taskID string, patch model.TaskPatch, updated time.Time) (*model.Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) (*model.Task, error)
}

// ListService manages lists and their tasks. Every call is scoped to the owner.
type ListService struct {
	repo listRepository
	now  func() time.Time
}

func NewListService(repo listRepository) *ListService {
	return &ListService{repo: repo, now: time.Now}
}

func (s *ListService) GetLists(ctx context.Context, userID string) ([]model.List, error) {
	lists, err := s.repo.ListLists(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return lists, nil
}

func (s *ListService) CreateList(ctx context.Context, userID, title string) (*model.List, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	list := &model.List{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Created: s.now(),
	}
	if err := s.repo.CreateList(ctx, list); err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

func (s *ListService) UpdateList(ctx context.Context, userID, listID, title string) (*model.List, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return mapRepo(s.repo.UpdateListTitle(ctx, userID, listID, title))
}

func (s *ListService) DeleteList(ctx context.Context, userID, listID string) (*model.List, error) {
	return mapRepo(s.repo.DeleteList(ctx, userID, listID))
}

func (s *ListService) GetTasks(ctx context.Context, userID, listID string) ([]model.Task, error) {
	if err := s.ensureOwner(ctx, userID, listID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, listID)
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

func (s *ListService) CreateTask(ctx context.Context, userID, listID, title string) (*model.Task, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwner(ctx, userID, listID); err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:      uuid.NewString(),
		ListID:  listID,
		Title:   title,
		Created: s.now(),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

func (s *ListService) UpdateTask(ctx context.Context, userID, listID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if err := s.ensureOwner(ctx, userID, listID); err != nil {
		return nil, err
	}
	return mapRepo(s.repo.UpdateTask(ctx, listID, taskID, patch, s.now()))
}

func (s *ListService) DeleteTask(ctx context.Context, userID, listID, taskID string) (*model.Task, error) {
	if err := s.ensureOwner(ctx, userID, listID); err != nil {
		return nil, err
	}
	return mapRepo(s.repo.DeleteTask(ctx, listID, taskID))
}

func (s *ListService) ensureOwner(ctx context.Context, userID, listID string) error {
	_, err := mapRepo(s.repo.GetList(ctx, userID, listID))
	return err
}

func mapRepo[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return nil, storageError(err)
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrInvalidInput
	}
	return title, nil
}
