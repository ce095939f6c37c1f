package api

import (
	"net/http"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles user endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var in models.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.log.Warn().Err(err).Msg("Malformed user body")
		c.Status(http.StatusInternalServerError)
		return
	}

	user, err := h.services.User.Create(c.Request.Context(), &in)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create user")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Created successfully",
		"user":    user,
	})
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("Failed to get user")
		c.Status(http.StatusInternalServerError)
		return
	}
	if user == nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, user)
}
