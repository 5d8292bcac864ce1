package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasklist/backend/internal/model"
	"github.com/tasklist/backend/internal/service"
)

type ListHandler struct {
	svc *service.ListService
}

func NewListHandler(svc *service.ListService) *ListHandler {
	return &ListHandler{svc: svc}
}

// GetLists godoc
// @Summary List the caller's lists
// @Tags lists
// @Produce json
// @Param x-access-token header string true "Access token"
// @Success 200 {array} model.List
// @Failure 401 {object} model.ErrorResponse
// @Router /lists [get]
func (h *ListHandler) GetLists(c *gin.Context) {
	user := GetAuthUser(c)
	lists, err := h.svc.GetLists(c.Request.Context(), user.ID)
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// CreateList godoc
// @Summary Create a list
// @Tags lists
// @Accept json
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param request body model.ListRequest true "List title"
// @Success 200 {object} model.List
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /lists [post]
func (h *ListHandler) CreateList(c *gin.Context) {
	var req model.ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	list, err := h.svc.CreateList(c.Request.Context(), GetAuthUser(c).ID, req.Title)
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateList godoc
// @Summary Rename a list
// @Tags lists
// @Accept json
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Param request body model.ListRequest true "List title"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id} [patch]
func (h *ListHandler) UpdateList(c *gin.Context) {
	var req model.ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.svc.UpdateList(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"), req.Title); err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "updated successfully"})
}

// DeleteList godoc
// @Summary Delete a list and its tasks
// @Tags lists
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Success 200 {object} model.ListDeletedResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id} [delete]
func (h *ListHandler) DeleteList(c *gin.Context) {
	removed, err := h.svc.DeleteList(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"))
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ListDeletedResponse{
		Message:     "list deleted successfully",
		RemovedList: removed,
	})
}

// GetTasks godoc
// @Summary List the tasks of a list
// @Tags tasks
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Success 200 {array} model.Task
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id}/tasks [get]
func (h *ListHandler) GetTasks(c *gin.Context) {
	tasks, err := h.svc.GetTasks(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"))
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Add a task to a list
// @Tags tasks
// @Accept json
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Param request body model.TaskRequest true "Task title"
// @Success 200 {object} model.TaskCreatedResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id}/tasks [post]
func (h *ListHandler) CreateTask(c *gin.Context) {
	var req model.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"), req.Title)
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskCreatedResponse{Message: "Task created", TaskDoc: task})
}

// UpdateTask godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Param taskId path string true "Task id"
// @Param request body model.TaskPatch true "Fields to change"
// @Success 200 {object} model.TaskUpdatedResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id}/tasks/{taskId} [patch]
func (h *ListHandler) UpdateTask(c *gin.Context) {
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"), c.Param("taskId"), patch)
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskUpdatedResponse{Message: "Updated successfully", UpdatedTask: task})
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param x-access-token header string true "Access token"
// @Param id path string true "List id"
// @Param taskId path string true "Task id"
// @Success 200 {object} model.TaskDeletedResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /lists/{id}/tasks/{taskId} [delete]
func (h *ListHandler) DeleteTask(c *gin.Context) {
	task, err := h.svc.DeleteTask(c.Request.Context(), GetAuthUser(c).ID, c.Param("id"), c.Param("taskId"))
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskDeletedResponse{Message: "Deleted successfully", RemovedTask: task})
}

func writeListError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
