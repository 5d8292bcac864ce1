package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tasklist/backend/internal/model"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Now()

	if err := store.CreateUser(ctx, model.NewUser("u1", "a@b.com", "hash", now)); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, model.NewUser("u2", "a@b.com", "hash", now)); !IsDuplicate(err) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	if _, err := store.GetUserByID(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	byEmail, err := store.GetUserByEmail(ctx, "a@b.com")
	if err != nil || byEmail.ID != "u1" {
		t.Fatalf("GetUserByEmail = %+v, %v", byEmail, err)
	}

	updated, err := store.UpdateUser(ctx, "u1", func(u *model.User) error {
		return u.AddSession(model.Session{TokenHash: "t1", ExpiresAt: now.Add(time.Hour)})
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Version != 1 || updated.SessionCount() != 1 {
		t.Fatalf("unexpected aggregate after update: version=%d sessions=%d", updated.Version, updated.SessionCount())
	}

	boom := errors.New("boom")
	if _, err := store.UpdateUser(ctx, "u1", func(u *model.User) error {
		_ = u.AddSession(model.Session{TokenHash: "t2", ExpiresAt: now.Add(time.Hour)})
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	reloaded, _ := store.GetUserByID(ctx, "u1")
	if _, ok := reloaded.FindSession("t2"); ok {
		t.Fatal("failed update was persisted")
	}
}

func TestMemoryConcurrentSessionUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.CreateUser(ctx, model.NewUser("u1", "a@b.com", "hash", time.Now()))

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := store.UpdateUser(ctx, "u1", func(u *model.User) error {
				return u.AddSession(model.Session{
					TokenHash: string(rune('a' + i)),
					ExpiresAt: time.Now().Add(time.Hour),
				})
			})
			if err != nil {
				t.Errorf("UpdateUser: %v", err)
			}
		}(i)
	}
	wg.Wait()

	user, _ := store.GetUserByID(ctx, "u1")
	if user.SessionCount() != n {
		t.Fatalf("expected %d sessions, got %d", n, user.SessionCount())
	}
}

func TestMemoryListsAndTasks(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := time.Now()

	_ = store.CreateList(ctx, &model.List{ID: "l2", UserID: "u1", Title: "second", Created: base.Add(time.Second)})
	_ = store.CreateList(ctx, &model.List{ID: "l1", UserID: "u1", Title: "first", Created: base})
	_ = store.CreateList(ctx, &model.List{ID: "l3", UserID: "u2", Title: "other", Created: base})

	lists, err := store.ListLists(ctx, "u1")
	if err != nil {
		t.Fatalf("ListLists: %v", err)
	}
	if len(lists) != 2 || lists[0].ID != "l1" || lists[1].ID != "l2" {
		t.Fatalf("unexpected lists: %+v", lists)
	}

	if _, err := store.GetList(ctx, "u1", "l3"); !IsNotFound(err) {
		t.Fatalf("expected foreign list to be hidden, got %v", err)
	}
	if _, err := store.UpdateListTitle(ctx, "u2", "l1", "stolen"); !IsNotFound(err) {
		t.Fatalf("expected foreign update to fail, got %v", err)
	}

	_ = store.CreateTask(ctx, &model.Task{ID: "t1", ListID: "l1", Title: "milk", Created: base})
	_ = store.CreateTask(ctx, &model.Task{ID: "t2", ListID: "l1", Title: "eggs", Created: base.Add(time.Second)})

	done := true
	task, err := store.UpdateTask(ctx, "l1", "t1", model.TaskPatch{Completed: &done}, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !task.Completed || task.Title != "milk" || task.Updated == nil {
		t.Fatalf("unexpected task after patch: %+v", task)
	}
	if _, err := store.UpdateTask(ctx, "l2", "t1", model.TaskPatch{}, base); !IsNotFound(err) {
		t.Fatalf("expected task lookup to be scoped by list, got %v", err)
	}

	if _, err := store.DeleteList(ctx, "u1", "l1"); err != nil {
		t.Fatalf("DeleteList: %v", err)
	}
	tasks, _ := store.ListTasks(ctx, "l1")
	if len(tasks) != 0 {
		t.Fatalf("expected tasks to be deleted with their list, got %d", len(tasks))
	}
}
