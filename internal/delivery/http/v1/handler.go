package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/epavlenko/taskboard/internal/services"
)

type Handler interface {
	HandleListUsers(c *gin.Context)
	HandleGetUser(c *gin.Context)
	HandleCreateUser(c *gin.Context)
	HandleReplaceUser(c *gin.Context)
	HandleDeleteUser(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleReplaceTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	users  services.UserService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	userService services.UserService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		users:  userService,
		tasks:  taskService,
	}
}

// requestLogger returns the handler logger enriched with the request
// id set by the RequestID middleware.
func (h *handlerImpl) requestLogger(c *gin.Context) zerolog.Logger {
	return h.logger.With().
		Str("request_id", c.GetString(requestIDCtxKey)).
		Logger()
}
