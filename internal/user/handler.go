package user

import (
	"net/http"

	"trip-planner/auth"
	"trip-planner/internal/errors"
	"trip-planner/redis"

	"github.com/gin-gonic/gin"
)

// Broadcaster pushes fresh snapshots to live viewers after directory
// changes that alter participant counts.
type Broadcaster interface {
	BroadcastAll()
}

// Handler handles HTTP requests for login and user administration
type Handler struct {
	service     Service
	broadcaster Broadcaster
}

// NewHandler creates a new user handler
func NewHandler(service Service, broadcaster Broadcaster) *Handler {
	return &Handler{service: service, broadcaster: broadcaster}
}

// FormLogin represents login form data
type FormLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormAddUser represents the admin add-user form
type FormAddUser struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

// FormDeleteUser represents the admin delete-user form
type FormDeleteUser struct {
	Username string `json:"username" binding:"required"`
}

// FormResetPassword represents the admin reset-password form
type FormResetPassword struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u, err := h.service.Authenticate(form.Username, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateJWT(u.Username)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	redis.StoreSession(token)

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         u.ToSafeUser(),
	})
}

// Logout revokes the caller's session token
func (h *Handler) Logout(c *gin.Context) {
	if token := c.GetString("jwt_token"); token != "" {
		redis.RevokeSession(token)
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's identity and admin flag
func (h *Handler) Me(c *gin.Context) {
	username := c.GetString("username")
	c.JSON(http.StatusOK, gin.H{
		"user":     username,
		"is_admin": h.service.IsAdmin(username),
	})
}

// AddUser registers a user. Admin only (enforced by route).
func (h *Handler) AddUser(c *gin.Context) {
	var form FormAddUser
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.AddUser(form.Username, form.Password, form.Role); err != nil {
		c.Error(err)
		return
	}

	// Participant counts changed, push both views.
	h.broadcaster.BroadcastAll()
	h.respondWithUsers(c, http.StatusCreated)
}

// DeleteUser removes a user. Admin only (enforced by route).
func (h *Handler) DeleteUser(c *gin.Context) {
	var form FormDeleteUser
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.DeleteUser(c.GetString("username"), form.Username); err != nil {
		c.Error(err)
		return
	}

	h.broadcaster.BroadcastAll()
	h.respondWithUsers(c, http.StatusOK)
}

// ResetPassword overwrites a user's password. Admin only (enforced by
// route). No broadcast: nothing visible to viewers changed.
func (h *Handler) ResetPassword(c *gin.Context) {
	var form FormResetPassword
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.ResetPassword(form.Username, form.Password); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) respondWithUsers(c *gin.Context, status int) {
	users, err := h.service.SafeUsers()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(status, gin.H{"users": users})
}
