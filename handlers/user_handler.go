package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/upb/users-api/internal/observability"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/services"
	"github.com/upb/users-api/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

const (
	msgCreated = "안녕하세요, %s님! 가입을 환영합니다."
	msgUpdated = "사용자 정보가 성공적으로 업데이트되었습니다."
	msgDeleted = "사용자가 성공적으로 삭제되었습니다."
)

// UserService is the user operations the handlers call
type UserService interface {
	Create(ctx context.Context, name, email string) (*models.User, error)
	FindByName(ctx context.Context, name string) ([]*models.User, error)
	Update(ctx context.Context, name string, fields map[string]any) error
	Delete(ctx context.Context, name string) error
}

// CreateUserRequest is the body of a create call
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// CreateUserResponse acknowledges a created user
type CreateUserResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// UserQuery selects users by exact name
type UserQuery struct {
	Name string `query:"name" validate:"required"`
}

// UserHandler serves the user endpoints
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// Create handles POST /createUser
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromRequest(r, h.logger)

	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Debug("malformed create body", zap.Error(err))
		HandleServiceError(w, services.ErrInvalidBody, logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, services.ErrMissingCreateFields.Message, logger)
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	resp := CreateUserResponse{
		ID:      user.ID.String(),
		Message: fmt.Sprintf(msgCreated, user.Name),
	}
	if err := utils.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error("failed to write create response", zap.Error(err))
	}
}

// Get handles GET /getUser?name=
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromRequest(r, h.logger)

	query := UserQuery{Name: r.URL.Query().Get("name")}
	if err := utils.ValidateStruct(&query); err != nil {
		HandleValidationError(w, err, services.ErrMissingReadName.Message, logger)
		return
	}

	users, err := h.users.FindByName(r.Context(), query.Name)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, users); err != nil {
		logger.Error("failed to write users response", zap.Error(err))
	}
}

// Update handles PUT /updateUser?name= with a partial body
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromRequest(r, h.logger)

	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil {
		logger.Debug("malformed update body", zap.Error(err))
		HandleServiceError(w, services.ErrInvalidBody, logger)
		return
	}

	if err := h.users.Update(r.Context(), r.URL.Query().Get("name"), fields); err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteMessage(w, http.StatusOK, msgUpdated); err != nil {
		logger.Error("failed to write update response", zap.Error(err))
	}
}

// Delete handles DELETE /deleteUser?name=
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromRequest(r, h.logger)

	if err := h.users.Delete(r.Context(), r.URL.Query().Get("name")); err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteMessage(w, http.StatusOK, msgDeleted); err != nil {
		logger.Error("failed to write delete response", zap.Error(err))
	}
}

// MethodNotAllowed answers any method an endpoint does not serve
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMethodNotAllowed(w)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
