package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasklist/backend/internal/config"
	"github.com/tasklist/backend/internal/model"
)

var (
	ErrNotFound  = errors.New("db: not found")
	ErrDuplicate = errors.New("db: duplicate key")
	// ErrConcurrentUpdate is returned when an optimistic aggregate update keeps losing races.
	ErrConcurrentUpdate = errors.New("db: concurrent update")
)

// Store is the persistence contract shared by every backend.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Close()

	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser loads the aggregate, applies fn and saves the whole document atomically.
	// Nothing is written when fn returns an error.
	UpdateUser(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListLists(ctx context.Context, userID string) ([]model.List, error)
	GetList(ctx context.Context, userID, listID string) (*model.List, error)
	CreateList(ctx context.Context, list *model.List) error
	UpdateListTitle(ctx context.Context, userID, listID, title string) (*model.List, error)
	// DeleteList removes the list and every task in it.
	DeleteList(ctx context.Context, userID, listID string) (*model.List, error)

	ListTasks(ctx context.Context, listID string) ([]model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, listID, taskID string, patch model.TaskPatch, updated time.Time) (*model.Task, error)
	DeleteTask(ctx context.Context, listID, taskID string) (*model.Task, error)
}

// Open connects the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemory(), nil
	case "postgres", "":
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return &Postgres{Pool: pool}, nil
	case "mongo", "mongodb":
		return NewMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
	_ Store = (*Mongo)(nil)
)
