package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tasklist/backend/internal/model"
)

// versionedDoc is a single stored user whose first conflicts
// compare-and-swap writes lose to a concurrent writer.
type versionedDoc struct {
	user      *model.User
	conflicts int
	replaces  int
}

func (d *versionedDoc) load(_ context.Context, id string) (*model.User, error) {
	if d.user == nil || d.user.ID != id {
		return nil, ErrNotFound
	}
	return d.user.Clone(), nil
}

func (d *versionedDoc) replace(_ context.Context, user *model.User, loaded int64) (bool, error) {
	d.replaces++
	if d.conflicts > 0 {
		d.conflicts--
		// another writer committed first
		d.user.Version++
		return false, nil
	}
	if d.user.Version != loaded {
		return false, nil
	}
	d.user = user.Clone()
	return true, nil
}

func addSession(hash string) func(*model.User) error {
	return func(u *model.User) error {
		return u.AddSession(model.Session{TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)})
	}
}

func TestUpdateVersionedRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	doc := &versionedDoc{user: model.NewUser("u1", "a@b.com", "hash", time.Now()), conflicts: 2}

	calls := 0
	got, err := updateVersioned(ctx, "u1", func(u *model.User) error {
		calls++
		return addSession("h1")(u)
	}, doc.load, doc.replace)
	if err != nil {
		t.Fatalf("updateVersioned: %v", err)
	}
	if calls != 3 || doc.replaces != 3 {
		t.Fatalf("expected 3 attempts, got fn=%d replace=%d", calls, doc.replaces)
	}
	if got.Version != 3 || doc.user.Version != 3 {
		t.Fatalf("version = %d (stored %d), want 3", got.Version, doc.user.Version)
	}
	if _, ok := doc.user.FindSession("h1"); !ok {
		t.Fatal("session missing from the stored document")
	}
}

func TestUpdateVersionedGivesUp(t *testing.T) {
	ctx := context.Background()
	doc := &versionedDoc{user: model.NewUser("u1", "a@b.com", "hash", time.Now()), conflicts: maxUpdateAttempts}

	_, err := updateVersioned(ctx, "u1", addSession("h1"), doc.load, doc.replace)
	if !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	if doc.replaces != maxUpdateAttempts {
		t.Fatalf("expected %d attempts, got %d", maxUpdateAttempts, doc.replaces)
	}
	if doc.user.SessionCount() != 0 {
		t.Fatal("nothing should be written after losing every race")
	}
}

func TestUpdateVersionedStopsOnErrors(t *testing.T) {
	ctx := context.Background()
	doc := &versionedDoc{user: model.NewUser("u1", "a@b.com", "hash", time.Now())}

	rejected := errors.New("rejected")
	if _, err := updateVersioned(ctx, "u1", func(*model.User) error { return rejected }, doc.load, doc.replace); !errors.Is(err, rejected) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if doc.replaces != 0 {
		t.Fatal("fn error must not reach replace")
	}

	if _, err := updateVersioned(ctx, "missing", addSession("h1"), doc.load, doc.replace); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
