package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/remindly/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	CheckUsername(ctx context.Context, username string) (*AvailabilityResponse, error)
	CheckEmail(ctx context.Context, email string) (*AvailabilityResponse, error)
	TokenVerifier
}

// TokenVerifier turns a bearer token into the id of the user it was issued to
type TokenVerifier interface {
	ValidateToken(tokenString string) (uuid.UUID, error)
}

// TaskListService exposes the task list aggregate operations. Every call takes the
// already-verified id of the requesting user.
type TaskListService interface {
	CreateTaskList(ctx context.Context, ownerID uuid.UUID, req CreateTaskListRequest) (*entities.TaskList, error)
	ListTaskLists(ctx context.Context, ownerID uuid.UUID) ([]*entities.TaskList, error)
	GetTaskList(ctx context.Context, id, userID uuid.UUID) (*entities.TaskList, error)
	UpdateTaskList(ctx context.Context, id, userID uuid.UUID, req UpdateTaskListRequest) (*entities.TaskList, error)
	DeleteTaskList(ctx context.Context, id, userID uuid.UUID) error
}

// ProfileService interface for the signed-in user's own profile
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (string, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte, originalFileName string) (string, error)
}

// Auth related types
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string    `json:"token"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Message  string    `json:"message,omitempty"`
}

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

type CheckEmailRequest struct {
	Email string `json:"email"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Task list related types

// TaskItemInput is one raw item from a create or update payload.
// ID is optional; LegacyID accepts clients that still send "_id".
type TaskItemInput struct {
	ID          *string `json:"id"`
	LegacyID    *string `json:"_id"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Completed   *bool   `json:"completed"`
}

// ClientID returns the id the client supplied, if any
func (in TaskItemInput) ClientID() string {
	if in.ID != nil && *in.ID != "" {
		return *in.ID
	}
	if in.LegacyID != nil {
		return *in.LegacyID
	}
	return ""
}

type CreateTaskListRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       []TaskItemInput `json:"items"`
}

// UpdateTaskListRequest is a partial update. Nil fields are left untouched; Items, when
// present, replaces the whole item sequence. Reminder distinguishes absent from null.
type UpdateTaskListRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Items       *[]TaskItemInput `json:"items"`
	Reminder    OptionalReminder `json:"reminder"`
}

// OptionalReminder records whether the "reminder" key was present in the payload.
// Present with null (or an empty object) means clear.
type OptionalReminder struct {
	Set   bool
	Value *entities.Reminder
}

// UnmarshalJSON is only invoked when the key exists, including for a literal null
func (o *OptionalReminder) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var r entities.Reminder
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	o.Value = &r
	return nil
}

type TaskListResponse struct {
	Message  string       `json:"message"`
	TaskList TaskListView `json:"taskList"`
}

// TaskListView is a list as rendered to clients, with its derived urgency
type TaskListView struct {
	*entities.TaskList
	Urgency entities.UrgencyLevel `json:"urgency"`
}

// Profile related types
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

type UpdateUsernameResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type AvatarResponse struct {
	Message string `json:"message"`
	Avatar  string `json:"avatar"`
}

type ProfileResponse struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	ProfileImage *string   `json:"profileImage"`
}

// Common response types
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
