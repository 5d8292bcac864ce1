package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListDeletedResponse struct {
	Message     string `json:"message"`
	RemovedList *List  `json:"removedList"`
}

type TaskCreatedResponse struct {
	Message string `json:"message"`
	TaskDoc *Task  `json:"taskDoc"`
}

type TaskUpdatedResponse struct {
	Message     string `json:"message"`
	UpdatedTask *Task  `json:"updatedTask"`
}

type TaskDeletedResponse struct {
	Message     string `json:"message"`
	RemovedTask *Task  `json:"removedTask"`
}
