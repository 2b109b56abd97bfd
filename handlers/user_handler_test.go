package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/services"
	"go.uber.org/zap"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, name, email string) (*models.User, error) {
	args := m.Called(ctx, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByName(ctx context.Context, name string) ([]*models.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, name string, fields map[string]any) error {
	args := m.Called(ctx, name, fields)
	return args.Error(0)
}

func (m *MockUserService) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestUserHandler_Create(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns 201 with id and greeting", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		id := uuid.New()
		svc.On("Create", mock.Anything, "Kim", "kim@example.com").
			Return(&models.User{ID: id, Name: "Kim", Email: "kim@example.com"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/createUser", strings.NewReader(`{"name":"Kim","email":"kim@example.com"}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		body := decodeBody(t, rec)
		assert.Equal(t, id.String(), body["id"])
		assert.Equal(t, "안녕하세요, Kim님! 가입을 환영합니다.", body["message"])
		svc.AssertExpectations(t)
	})

	t.Run("missing email returns 400 without calling the service", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPost, "/createUser", strings.NewReader(`{"name":"Kim"}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "이름과 이메일을 모두 입력해주세요.", body["error"])
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty body returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPost, "/createUser", nil)
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "이름과 이메일을 모두 입력해주세요.", decodeBody(t, rec)["error"])
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPost, "/createUser", strings.NewReader(`{"name":`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, services.ErrInvalidBody.Message, decodeBody(t, rec)["error"])
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid name returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Create", mock.Anything, "환영맨", "a@b").Return(nil, services.ErrInvalidName)

		req := httptest.NewRequest(http.MethodPost, "/createUser", strings.NewReader(`{"name":"환영맨","email":"a@b"}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "이름에 '환영'이라는 단어가 포함될 수 없습니다.", decodeBody(t, rec)["error"])
	})

	t.Run("store failure returns 500 with store message", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Create", mock.Anything, "Kim", "kim@example.com").
			Return(nil, services.WrapInternal(errors.New("store unavailable")))

		req := httptest.NewRequest(http.MethodPost, "/createUser", strings.NewReader(`{"name":"Kim","email":"kim@example.com"}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "store unavailable", decodeBody(t, rec)["error"])
	})
}

func TestUserHandler_Get(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns matching users as an array", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		users := []*models.User{
			{ID: uuid.New(), Name: "Kim", Email: "kim@example.com", CreatedAt: &createdAt},
			{ID: uuid.New(), Name: "Kim", Email: "kim2@example.com", Attributes: map[string]any{"age": json.Number("30")}},
		}
		svc.On("FindByName", mock.Anything, "Kim").Return(users, nil)

		req := httptest.NewRequest(http.MethodGet, "/getUser?name=Kim", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body []map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, users[0].ID.String(), body[0]["id"])
		assert.Equal(t, "2024-03-01T12:00:00Z", body[0]["createdAt"])
		assert.Nil(t, body[1]["createdAt"])
		assert.Equal(t, float64(30), body[1]["age"])
	})

	t.Run("missing name returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		req := httptest.NewRequest(http.MethodGet, "/getUser", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "조회할 사용자 이름이 필요합니다.", decodeBody(t, rec)["error"])
		svc.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
	})

	t.Run("no match returns 404", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("FindByName", mock.Anything, "Nobody").Return(nil, services.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodGet, "/getUser?name=Nobody", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "사용자를 찾을 수 없습니다.", decodeBody(t, rec)["error"])
	})
}

func TestUserHandler_Update(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns 200 on success", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Update", mock.Anything, "Kim", map[string]any{
			"email": "new@example.com",
			"age":   json.Number("31"),
		}).Return(nil)

		req := httptest.NewRequest(http.MethodPut, "/updateUser?name=Kim", strings.NewReader(`{"email":"new@example.com","age":31}`))
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "사용자 정보가 성공적으로 업데이트되었습니다.", decodeBody(t, rec)["message"])
		svc.AssertExpectations(t)
	})

	t.Run("empty body is passed through as no fields", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Update", mock.Anything, "Kim", map[string]any(nil)).Return(services.ErrMissingUpdateInput)

		req := httptest.NewRequest(http.MethodPut, "/updateUser?name=Kim", nil)
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "사용자 이름 또는 수정할 데이터가 없습니다.", decodeBody(t, rec)["error"])
	})

	t.Run("non-object body returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		req := httptest.NewRequest(http.MethodPut, "/updateUser?name=Kim", strings.NewReader(`["a"]`))
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, services.ErrInvalidBody.Message, decodeBody(t, rec)["error"])
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent update returns 409", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Update", mock.Anything, "Kim", mock.Anything).Return(services.ErrConcurrentUpdate)

		req := httptest.NewRequest(http.MethodPut, "/updateUser?name=Kim", strings.NewReader(`{"age":1}`))
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUserHandler_Delete(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns 200 on success", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Delete", mock.Anything, "Kim").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/deleteUser?name=Kim", nil)
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "사용자가 성공적으로 삭제되었습니다.", decodeBody(t, rec)["message"])
	})

	t.Run("embargo returns 403 with remaining time", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Delete", mock.Anything, "Kim").Return(services.NewDeleteEmbargoError(45))

		req := httptest.NewRequest(http.MethodDelete, "/deleteUser?name=Kim", nil)
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "가입 후 1분이 지나지 않은 데이터는 삭제할 수 없습니다.", body["error"])
		assert.Equal(t, "45초 후에 삭제할 수 있습니다.", body["remainingTime"])
		assert.Equal(t, float64(45), body["remainingSeconds"])
	})

	t.Run("missing name returns 400", func(t *testing.T) {
		svc := new(MockUserService)
		handler := NewUserHandler(svc, logger)

		svc.On("Delete", mock.Anything, "").Return(services.ErrMissingDeleteName)

		req := httptest.NewRequest(http.MethodDelete, "/deleteUser", nil)
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "삭제할 사용자 이름이 필요합니다.", decodeBody(t, rec)["error"])
	})
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()

	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/createUser", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", decodeBody(t, rec)["error"])
}
