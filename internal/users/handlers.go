package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Actions accepted in the "action" query parameter
const (
	ActionSearch = "search"
	ActionGet    = "get"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// UserHandlers dispatches API requests to the user service
type UserHandlers struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(service UserService, logger *zap.Logger) *UserHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the dispatcher. /api.php keeps older front-ends working.
func (h *UserHandlers) RegisterRoutes(router gin.IRoutes) {
	router.Any("/api", h.Dispatch)
	router.Any("/api.php", h.Dispatch)
}

// Dispatch maps the HTTP verb and the action parameter onto one operation
func (h *UserHandlers) Dispatch(c *gin.Context) {
	action := c.Query("action")

	switch c.Request.Method {
	case http.MethodGet:
		switch {
		case action == ActionSearch:
			h.SearchUsers(c)
		case action == ActionGet && c.Query("id") != "":
			h.GetUser(c)
		default:
			// get without an id falls through to the full list
			h.ListUsers(c)
		}
	case http.MethodPost:
		if action != ActionCreate {
			invalidAction(c)
			return
		}
		h.CreateUser(c)
	case http.MethodPut:
		if action != ActionUpdate {
			invalidAction(c)
			return
		}
		h.UpdateUser(c)
	case http.MethodDelete:
		if action != ActionDelete {
			invalidAction(c)
			return
		}
		h.DeleteUser(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
	}
}

func invalidAction(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid action."})
}

func (h *UserHandlers) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to load users."})
		return
	}

	if len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No users found."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": users})
}

func (h *UserHandlers) SearchUsers(c *gin.Context) {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		h.ListUsers(c)
		return
	}

	users, err := h.service.SearchUsers(c.Request.Context(), term)
	if err != nil {
		h.logger.Error("Failed to search users", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to search users."})
		return
	}

	if len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No users found matching your search."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": users})
}

func (h *UserHandlers) GetUser(c *gin.Context) {
	id, err := ParseID(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id."})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), int64(id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		h.logger.Error("Failed to get user", zap.Int64("user_id", int64(id)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to load user."})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to create user. Data is incomplete."})
		return
	}

	_, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		switch {
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to create user. Data is incomplete."})
		case errors.Is(err, ErrEmailExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already exists."})
		default:
			h.logger.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to create user."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User was created successfully."})
}

func (h *UserHandlers) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to update user. Data is incomplete."})
		return
	}

	_, err := h.service.UpdateUser(c.Request.Context(), &req)
	if err != nil {
		switch {
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to update user. Data is incomplete."})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		case errors.Is(err, ErrEmailExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already exists."})
		default:
			h.logger.Error("Failed to update user", zap.Int64("user_id", int64(req.ID)), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to update user."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User was updated successfully."})
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	idParam := c.Query("id")
	if idParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unable to delete user. Data is incomplete."})
		return
	}

	id, err := ParseID(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id."})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), int64(id)); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		h.logger.Error("Failed to delete user", zap.Int64("user_id", int64(id)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Unable to delete user."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User was deleted successfully."})
}
