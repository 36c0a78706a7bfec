package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/opsdeck/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdeck/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

var userRoles = []string{"admin", "technician", "user"}

// UserHandler handles HTTP requests for helpdesk accounts.
type UserHandler struct {
	userService  ports.UserService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService ports.UserService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "user"),
	}
}

// Router sets up a new chi Router for all user routes.
func (h *UserHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.HandleListUsers)
	r.Get("/me", h.HandleGetCurrentUser)
	r.Get("/{userID}", h.HandleGetUser)
	r.Patch("/{userID}", h.HandleUpdateUser)

	return r
}

// UpdateUserRequest defines a partial profile update
type UpdateUserRequest struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
	Phone           *string `json:"phone"`
	Role            *string `json:"role"`
	Department      *string `json:"department"`
	Active          *bool   `json:"active"`
}

// Validate validates the update user request
func (r *UpdateUserRequest) Validate() error {
	v := validation.NewValidator()

	if r.FirstName != nil {
		v.MaxLength("firstName", *r.FirstName, domain.MaxNameLength)
	}
	if r.LastName != nil {
		v.MaxLength("lastName", *r.LastName, domain.MaxNameLength)
	}
	if r.Role != nil {
		v.OneOf("role", *r.Role, userRoles)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListUsers handles GET /users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.UserSnapshot, 0, len(users))
	for _, user := range users {
		out = append(out, domain.NewUserSnapshot(user))
	}
	WriteList(w, out)
}

// HandleGetCurrentUser handles GET /users/me
func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	user, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewUserSnapshot(user))
}

// HandleGetUser handles GET /users/{userID}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID", "Invalid user ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewUserSnapshot(user))
}

// HandleUpdateUser handles PATCH /users/{userID}
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID", "Invalid user ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateUserParams{
		UserID:          userID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ProfileImageURL: req.ProfileImageURL,
		Phone:           req.Phone,
		Department:      req.Department,
		Active:          req.Active,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		params.Role = &role
	}

	user, err := h.userService.UpdateUser(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("user updated", "user_id", userID)

	WriteJSON(w, http.StatusOK, domain.NewUserSnapshot(user))
}
