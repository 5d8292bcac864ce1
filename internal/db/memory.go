package db

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tasklist/backend/internal/model"
)

// Memory keeps every document in process. It is used for local runs and tests.
type Memory struct {
	mu     sync.Mutex
	users  map[string]*model.User
	emails map[string]string
	lists  map[string]model.List
	tasks  map[string]model.Task
}

func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]*model.User),
		emails: make(map[string]string),
		lists:  make(map[string]model.List),
		tasks:  make(map[string]model.Task),
	}
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Close() {}

func (m *Memory) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := m.emails[user.Email]; ok {
		return ErrDuplicate
	}
	m.users[user.ID] = user.Clone()
	m.emails[user.Email] = user.ID
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	return m.users[id].Clone(), nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	m.users[id] = next
	return next.Clone(), nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.emails, user.Email)
	delete(m.users, id)
	for listID, l := range m.lists {
		if l.UserID != id {
			continue
		}
		delete(m.lists, listID)
		for taskID, t := range m.tasks {
			if t.ListID == listID {
				delete(m.tasks, taskID)
			}
		}
	}
	return nil
}

func (m *Memory) ListLists(_ context.Context, userID string) ([]model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.List{}
	for _, l := range m.lists {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b model.List) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) GetList(_ context.Context, userID, listID string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lists[listID]
	if !ok || l.UserID != userID {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *Memory) CreateList(_ context.Context, list *model.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lists[list.ID]; ok {
		return ErrDuplicate
	}
	m.lists[list.ID] = *list
	return nil
}

func (m *Memory) UpdateListTitle(_ context.Context, userID, listID, title string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lists[listID]
	if !ok || l.UserID != userID {
		return nil, ErrNotFound
	}
	l.Title = title
	m.lists[listID] = l
	return &l, nil
}

func (m *Memory) DeleteList(_ context.Context, userID, listID string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lists[listID]
	if !ok || l.UserID != userID {
		return nil, ErrNotFound
	}
	delete(m.lists, listID)
	for id, t := range m.tasks {
		if t.ListID == listID {
			delete(m.tasks, id)
		}
	}
	return &l, nil
}

func (m *Memory) ListTasks(_ context.Context, listID string) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Task{}
	for _, t := range m.tasks {
		if t.ListID == listID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[task.ID]; ok {
		return ErrDuplicate
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, listID, taskID string, patch model.TaskPatch, updated time.Time) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.ListID != listID {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.Updated = &updated
	m.tasks[taskID] = t
	return &t, nil
}

func (m *Memory) DeleteTask(_ context.Context, listID, taskID string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.ListID != listID {
		return nil, ErrNotFound
	}
	delete(m.tasks, taskID)
	return &t, nil
}
