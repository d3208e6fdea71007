package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/epavlenko/taskboard/internal/query"
	"github.com/epavlenko/taskboard/internal/services"
)

// taskRequest is the body of both task creation and replacement.
// Deadline and completed are deliberately untyped: clients send
// numbers, strings or booleans and the services layer coerces them.
type taskRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Deadline         any    `json:"deadline"`
	Completed        any    `json:"completed"`
	AssignedUser     string `json:"assignedUser"`
	AssignedUserName string `json:"assignedUserName"`
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	log := h.requestLogger(c)
	q := query.Parse(log, c.Request.URL.Query())

	if q.CountOnly {
		count, err := h.tasks.CountTasks(c, q)
		if err != nil {
			log.Error().
				Err(err).
				Msg("failed to count tasks")
			abortWithError(c, err)
			return
		}
		respond(c, http.StatusOK, count)
		return
	}

	tasks, err := h.tasks.ListTasks(c, q)
	if err != nil {
		log.Error().
			Err(err).
			Msg("failed to list tasks")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, tasks)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	log := h.requestLogger(c)
	q := query.Parse(log, c.Request.URL.Query())

	task, err := h.tasks.GetTask(c, c.Param("id"), q.Select)
	if err != nil {
		log.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to fetch task")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, task)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	log := h.requestLogger(c)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, errInvalidRequestBody.Error())
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Name:             req.Name,
		Description:      req.Description,
		Deadline:         req.Deadline,
		Completed:        req.Completed,
		AssignedUser:     req.AssignedUser,
		AssignedUserName: req.AssignedUserName,
	})
	if err != nil {
		log.Error().
			Err(err).
			Msg("failed to create task")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, task)
}

func (h *handlerImpl) HandleReplaceTask(c *gin.Context) {
	log := h.requestLogger(c)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, errInvalidRequestBody.Error())
		return
	}

	task, err := h.tasks.ReplaceTask(c, c.Param("id"), services.ReplaceTaskParams{
		Name:             req.Name,
		Description:      req.Description,
		Deadline:         req.Deadline,
		Completed:        req.Completed,
		AssignedUser:     req.AssignedUser,
		AssignedUserName: req.AssignedUserName,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to replace task")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	log := h.requestLogger(c)

	task, err := h.tasks.DeleteTask(c, c.Param("id"))
	if err != nil {
		log.Error().
			Err(err).
			Str("task_id", c.Param("id")).
			Msg("failed to delete task")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, task)
}
