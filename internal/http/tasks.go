package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/tasks"
)

// TaskStatusReader looks up background task status by ID.
type TaskStatusReader interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// ReminderTrigger enqueues an overdue reminder sweep on demand.
type ReminderTrigger interface {
	RunNow(triggeredBy string) (string, error)
}

// TasksController handles task queue endpoints.
type TasksController struct {
	status    TaskStatusReader
	reminders ReminderTrigger
}

// NewTasksController creates a new TasksController. reminders may be nil.
func NewTasksController(status TaskStatusReader, reminders ReminderTrigger) *TasksController {
	return &TasksController{status: status, reminders: reminders}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.status.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found", Code: CodeNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusName(status),
	})
}

// RunReminders handles POST /api/reminders/run
func (tc *TasksController) RunReminders(c *gin.Context) {
	if tc.reminders == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}
	id, err := tc.reminders.RunNow(actorName(c))
	if err != nil {
		respondInternalError(c, err, "enqueue reminder sweep")
		return
	}
	respondAccepted(c, "overdue reminder sweep enqueued", gin.H{"task_id": id})
}
