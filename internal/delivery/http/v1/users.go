package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/epavlenko/taskboard/internal/query"
	"github.com/epavlenko/taskboard/internal/services"
)

// userRequest is the body of both user creation and replacement.
// Validation happens in the services layer so rejected payloads get
// the domain's error envelope rather than a binding error.
type userRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

func (h *handlerImpl) HandleListUsers(c *gin.Context) {
	log := h.requestLogger(c)
	q := query.Parse(log, c.Request.URL.Query())

	if q.CountOnly {
		count, err := h.users.CountUsers(c, q)
		if err != nil {
			log.Error().
				Err(err).
				Msg("failed to count users")
			abortWithError(c, err)
			return
		}
		respond(c, http.StatusOK, count)
		return
	}

	users, err := h.users.ListUsers(c, q)
	if err != nil {
		log.Error().
			Err(err).
			Msg("failed to list users")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, users)
}

func (h *handlerImpl) HandleGetUser(c *gin.Context) {
	log := h.requestLogger(c)
	q := query.Parse(log, c.Request.URL.Query())

	user, err := h.users.GetUser(c, c.Param("id"), q.Select)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", c.Param("id")).
			Msg("failed to fetch user")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *handlerImpl) HandleCreateUser(c *gin.Context) {
	log := h.requestLogger(c)

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, errInvalidRequestBody.Error())
		return
	}

	user, err := h.users.CreateUser(c, services.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	})
	if err != nil {
		log.Error().
			Err(err).
			Msg("failed to create user")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

func (h *handlerImpl) HandleReplaceUser(c *gin.Context) {
	log := h.requestLogger(c)

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, http.StatusBadRequest, errInvalidRequestBody.Error())
		return
	}

	user, err := h.users.ReplaceUser(c, c.Param("id"), services.ReplaceUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", c.Param("id")).
			Msg("failed to replace user")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *handlerImpl) HandleDeleteUser(c *gin.Context) {
	log := h.requestLogger(c)

	user, err := h.users.DeleteUser(c, c.Param("id"))
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", c.Param("id")).
			Msg("failed to delete user")
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}
