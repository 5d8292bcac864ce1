package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tasklist/backend/internal/model"
)

func (db *Postgres) ListLists(ctx context.Context, userID string) ([]model.List, error) {
	query := `
		SELECT id, user_id, title, created_at
		FROM lists
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

func (db *Postgres) GetList(ctx context.Context, userID, listID string) (*model.List, error) {
	query := `
		SELECT id, user_id, title, created_at
		FROM lists
		WHERE id = $1 AND user_id = $2
	`
	return scanList(db.Pool.QueryRow(ctx, query, listID, userID))
}

func (db *Postgres) CreateList(ctx context.Context, list *model.List) error {
	query := `
		INSERT INTO lists (id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := db.Pool.Exec(ctx, query, list.ID, list.UserID, list.Title, list.Created)
	return mapPgError(err)
}

func (db *Postgres) UpdateListTitle(ctx context.Context, userID, listID, title string) (*model.List, error) {
	query := `
		UPDATE lists
		SET title = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, created_at
	`
	return scanList(db.Pool.QueryRow(ctx, query, listID, userID, title))
}

// DeleteList relies on ON DELETE CASCADE to drop the list's tasks.
func (db *Postgres) DeleteList(ctx context.Context, userID, listID string) (*model.List, error) {
	query := `
		DELETE FROM lists
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, created_at
	`
	return scanList(db.Pool.QueryRow(ctx, query, listID, userID))
}

func (db *Postgres) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	query := `
		SELECT id, list_id, title, completed, created_at, updated_at
		FROM tasks
		WHERE list_id = $1
		ORDER BY created_at, id
	`
	rows, err := db.Pool.Query(ctx, query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (db *Postgres) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (id, list_id, title, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.Pool.Exec(ctx, query, task.ID, task.ListID, task.Title, task.Completed, task.Created, task.Updated)
	return mapPgError(err)
}

func (db *Postgres) UpdateTask(ctx context.Context, listID, taskID string, patch model.TaskPatch, updated time.Time) (*model.Task, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($3::text, title),
			completed = COALESCE($4::boolean, completed),
			updated_at = $5
		WHERE list_id = $1 AND id = $2
		RETURNING id, list_id, title, completed, created_at, updated_at
	`
	return scanTask(db.Pool.QueryRow(ctx, query, listID, taskID, patch.Title, patch.Completed, updated))
}

func (db *Postgres) DeleteTask(ctx context.Context, listID, taskID string) (*model.Task, error) {
	query := `
		DELETE FROM tasks
		WHERE list_id = $1 AND id = $2
		RETURNING id, list_id, title, completed, created_at, updated_at
	`
	return scanTask(db.Pool.QueryRow(ctx, query, listID, taskID))
}

func scanList(row pgx.Row) (*model.List, error) {
	var l model.List
	if err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.Created); err != nil {
		return nil, mapPgError(err)
	}
	return &l, nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(&t.ID, &t.ListID, &t.Title, &t.Completed, &t.Created, &t.Updated); err != nil {
		return nil, mapPgError(err)
	}
	return &t, nil
}
