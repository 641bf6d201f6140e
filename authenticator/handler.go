package authenticator

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authctx"
	"github.com/kbukum/authkit/auth/jwt"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/middleware"
	"github.com/kbukum/authkit/validation"
)

// Route paths served by Handler.
const (
	LoginPath   = "/login"
	RefreshPath = "/refresh"
	SessionPath = "/session"
)

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on r. limit, when non-nil, guards /login and
// /refresh; /session requires a Bearer access token.
func (h *Handler) Register(r gin.IRouter, limit gin.HandlerFunc) {
	exchange := r.Group("")
	if limit != nil {
		exchange.Use(limit)
	}
	exchange.POST(LoginPath, h.Login)
	exchange.POST(RefreshPath, h.Refresh)

	r.GET(SessionPath, middleware.Auth(middleware.AuthConfig{
		Validator: auth.NewValidator(h.svc.issuer.ValidatorFunc()),
	}), h.Session)
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bind(c, &req) {
		return
	}
	pw := secret.NewString(req.Password)
	defer pw.Destroy()

	tokens, err := h.svc.Login(c.Request.Context(), req.Username, pw)
	if err != nil {
		server.RespondWithError(c, toAppError(err))
		return
	}
	server.RespondOK(c, tokens)
}

// Refresh handles POST /refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		server.RespondWithError(c, toAppError(err))
		return
	}
	server.RespondOK(c, tokens)
}

// Session handles GET /session.
func (h *Handler) Session(c *gin.Context) {
	claims, err := authctx.GetOrError[*jwt.Claims](c.Request.Context())
	if err != nil {
		server.RespondWithError(c, apperrors.Unauthorized(""))
		return
	}
	server.RespondOK(c, sessionInfo(claims))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Request body must be JSON with all required fields.").WithCause(err))
		return false
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}

func toAppError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.Unauthorized("Invalid username or password.")
	case errors.Is(err, ErrTooManyAttempts):
		return apperrors.RateLimited()
	case errors.Is(err, ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
		return apperrors.InvalidToken().WithCause(err)
	default:
		return apperrors.Internal(err)
	}
}
