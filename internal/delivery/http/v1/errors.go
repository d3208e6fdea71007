package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/epavlenko/taskboard/internal/services"
)

var errInvalidRequestBody = errors.New("invalid request body")

// response is the envelope every endpoint answers with: a short
// human-readable message plus the payload, which is null on errors.
type response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, response{
		Message: http.StatusText(status),
		Data:    data,
	})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response{
		Message: message,
		Data:    nil,
	})
}

// abortWithError maps a service error onto the wire: validation
// failures, malformed ids, taken emails and the completed-task guard
// are client errors, missing entities are 404, everything else is an
// opaque 500.
func abortWithError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		abort(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, services.ErrMalformedID),
		errors.Is(err, services.ErrTaskCompleted),
		errors.Is(err, services.ErrEmailTaken):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		abort(c, http.StatusNotFound, err.Error())
	default:
		abort(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
