package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/housekeeper/internal/auth/authctx"
	apperrors "github.com/skillsenselab/housekeeper/internal/errors"
	"github.com/skillsenselab/housekeeper/internal/logger"
	"github.com/skillsenselab/housekeeper/internal/server"
	"github.com/skillsenselab/housekeeper/internal/validation"
)

const currentUserKey = "currentUser"

// Handler exposes the identity operations over HTTP.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates the identity HTTP handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.WithComponent("identity-http")}
}

// RegisterRoutes mounts the public and guarded identity routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	guarded := r.Group("/", h.Guard())
	guarded.GET("/users", h.ListUsers)
	guarded.GET("/users/me", h.GetProfile)
	guarded.PUT("/users/me", h.UpdateProfile)
	guarded.PUT("/users/me/password", h.UpdatePassword)
}

// Guard returns middleware that validates the bearer token and resolves it
// to a stored identity. The user is placed in both the Gin context and the
// request context for downstream handlers.
func (h *Handler) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			server.RespondWithError(c, apperrors.Unauthorized("Not authenticated"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			server.RespondWithError(c, apperrors.Unauthorized("Not authenticated"))
			c.Abort()
			return
		}

		u, err := h.svc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			server.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, u)
		ctx := authctx.Set(c.Request.Context(), u)
		ctx = logger.ContextWithUserID(ctx, u.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentUser returns the authenticated user placed by Guard.
func CurrentUser(c *gin.Context) (*User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	LastName string `json:"last_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	err := h.svc.Register(c.Request.Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "User registered successfully"})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	tok, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

// GetProfile handles GET /users/me.
func (h *Handler) GetProfile(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Not authenticated"))
		return
	}
	c.JSON(http.StatusOK, u.ToProfile())
}

// UpdateProfile handles PUT /users/me. Absent fields are left unchanged.
func (h *Handler) UpdateProfile(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Not authenticated"))
		return
	}

	var update ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		server.RespondWithError(c, apperrors.Validation("Malformed request body"))
		return
	}
	if update.Email != nil {
		if err := validation.Var(*update.Email, "required,email"); err != nil {
			server.RespondWithError(c, apperrors.Validation("Invalid email address"))
			return
		}
	}
	if update.Username != nil {
		if err := validation.Var(*update.Username, "required,min=3,max=64"); err != nil {
			server.RespondWithError(c, apperrors.Validation("Invalid username"))
			return
		}
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), u, update)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.ToProfile())
}

// UpdatePassword handles PUT /users/me/password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized("Not authenticated"))
		return
	}

	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), u, req.OldPassword, req.NewPassword); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.svc.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func bindAndValidate(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperrors.Validation("Malformed request body")
	}
	return validation.Validate(req)
}
