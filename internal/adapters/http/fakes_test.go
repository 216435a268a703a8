package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

type structValidator struct{}

func (structValidator) Validate(i interface{}) error { return entities.Validate(i) }

// newTestEcho mirrors the server's error rendering closely enough for handler tests
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = structValidator{}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := MapError(err)
		_ = c.JSON(he.Code, ErrorBody(he))
	}
	return e
}

func withUser(id uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetUserID(c, id)
			return next(c)
		}
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type fakeAuthService struct {
	registered []ports.RegisterRequest
	err        error
}

func (f *fakeAuthService) Register(_ context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, req)
	return &ports.AuthResponse{Token: "tok", UserID: uuid.New(), Username: req.Username, Message: "User registered successfully"}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.AuthResponse{Token: "tok", Username: "alice"}, nil
}

func (f *fakeAuthService) CheckUsername(_ context.Context, username string) (*ports.AvailabilityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.AvailabilityResponse{Available: username != "taken", Message: "checked"}, nil
}

func (f *fakeAuthService) CheckEmail(_ context.Context, email string) (*ports.AvailabilityResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.AvailabilityResponse{Available: true, Message: "checked"}, nil
}

func (f *fakeAuthService) ValidateToken(string) (uuid.UUID, error) {
	return uuid.Nil, entities.ErrUnauthorized
}

type fakeTaskListService struct {
	lists      []*entities.TaskList
	err        error
	lastUpdate ports.UpdateTaskListRequest
	deleted    []uuid.UUID
}

func (f *fakeTaskListService) CreateTaskList(_ context.Context, ownerID uuid.UUID, req ports.CreateTaskListRequest) (*entities.TaskList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entities.TaskList{ID: uuid.New(), OwnerID: ownerID, Title: req.Title, Items: entities.TaskItems{}}, nil
}

func (f *fakeTaskListService) ListTaskLists(context.Context, uuid.UUID) ([]*entities.TaskList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lists, nil
}

func (f *fakeTaskListService) GetTaskList(_ context.Context, id, _ uuid.UUID) (*entities.TaskList, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.lists {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, entities.ErrTaskListNotFound
}

func (f *fakeTaskListService) UpdateTaskList(ctx context.Context, id, userID uuid.UUID, req ports.UpdateTaskListRequest) (*entities.TaskList, error) {
	f.lastUpdate = req
	return f.GetTaskList(ctx, id, userID)
}

func (f *fakeTaskListService) DeleteTaskList(_ context.Context, id, _ uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeProfileService struct {
	err        error
	avatarData []byte
	avatarName string
}

func (f *fakeProfileService) GetProfile(context.Context, uuid.UUID) (*ports.ProfileResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ProfileResponse{Username: "alice", Email: "alice@example.com"}, nil
}

func (f *fakeProfileService) UpdateUsername(_ context.Context, _ uuid.UUID, username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.TrimSpace(username), nil
}

func (f *fakeProfileService) UploadAvatar(_ context.Context, _ uuid.UUID, data []byte, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.avatarData = data
	f.avatarName = name
	return "/uploads/avatars/new.png", nil
}

type memBlobs struct {
	files map[string][]byte
}

func (m *memBlobs) Store(context.Context, ports.BlobNamespace, []byte, string) (string, error) {
	return "", nil
}

func (m *memBlobs) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	data, ok := m.files[relPath]
	if !ok {
		return nil, entities.ErrBlobNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *memBlobs) Delete(context.Context, string) error { return nil }
