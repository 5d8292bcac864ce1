package model

import "time"

type List struct {
	ID      string    `json:"_id"`
	Title   string    `json:"title"`
	UserID  string    `json:"_userId"`
	Created time.Time `json:"created"`
}

type Task struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	ListID    string     `json:"_listId"`
	Created   time.Time  `json:"created"`
	Updated   *time.Time `json:"updated,omitempty"`
	Completed bool       `json:"completed"`
}

type ListRequest struct {
	Title string `json:"title"`
}

type TaskRequest struct {
	Title string `json:"title"`
}

// TaskPatch carries the optional fields of a task update.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
