package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskListNotFound   = errors.New("task list not found")
	ErrForbidden          = errors.New("access to this task list is not allowed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrBlobNotFound       = errors.New("stored file not found")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError is a caller-correctable input problem.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithField records a per-field reason and returns the receiver for chaining.
func (e *ValidationError) WithField(field, reason string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username" validate:"required,min=3,max=50"`
	Email        string    `json:"email" db:"email" validate:"required,email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	// Avatar is a filename inside the avatar blob namespace, not a path.
	Avatar    *string   `json:"avatar" db:"avatar"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeUsername trims surrounding whitespace
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TaskList is a user-owned, named collection of items with an optional reminder.
// Items and reminder are embedded values persisted together with the list.
type TaskList struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"userId" db:"user_id"`
	Title       string    `json:"title" db:"title" validate:"required,max=100"`
	Description string    `json:"description" db:"description" validate:"max=250"`
	Items       TaskItems `json:"items" db:"items" validate:"dive"`
	Reminder    *Reminder `json:"reminder" db:"reminder"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// IsOwnedBy reports whether userID may read or modify the list
func (l *TaskList) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}

// Clone returns a deep copy so a failed mutation never leaks into the loaded value
func (l *TaskList) Clone() *TaskList {
	c := *l
	c.Items = l.Items.Clone()
	if l.Reminder != nil {
		r := *l.Reminder
		c.Reminder = &r
	}
	return &c
}

// ImagePaths returns the stored image references of all items, in item order
func (l *TaskList) ImagePaths() []string {
	return l.Items.ImagePaths()
}

// TaskItem is one entry of a TaskList. It has no lifecycle outside its parent.
type TaskItem struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title" validate:"required,max=100"`
	Link        string    `json:"link"`
	Description string    `json:"description" validate:"max=250"`
	Image       *string   `json:"image"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskItems is the ordered item sequence of a list; order is display order.
type TaskItems []TaskItem

func (items TaskItems) Clone() TaskItems {
	if items == nil {
		return nil
	}
	out := make(TaskItems, len(items))
	for i, it := range items {
		out[i] = it
		if it.Image != nil {
			img := *it.Image
			out[i].Image = &img
		}
	}
	return out
}

// ByID indexes items by id
func (items TaskItems) ByID() map[uuid.UUID]TaskItem {
	out := make(map[uuid.UUID]TaskItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

func (items TaskItems) ImagePaths() []string {
	var paths []string
	for _, it := range items {
		if it.Image != nil && *it.Image != "" {
			paths = append(paths, *it.Image)
		}
	}
	return paths
}

const (
	ReminderDateLayout = "2006-01-02"
	ReminderTimeLayout = "15:04"
)

// Reminder is a single date and time attached to a list. Both parts are required together.
type Reminder struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// IsZero reports whether neither part is set
func (r Reminder) IsZero() bool {
	return strings.TrimSpace(r.Date) == "" && strings.TrimSpace(r.Time) == ""
}

// Deadline interprets the reminder in loc
func (r Reminder) Deadline(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(ReminderDateLayout+" "+ReminderTimeLayout, r.Date+" "+r.Time, loc)
}
