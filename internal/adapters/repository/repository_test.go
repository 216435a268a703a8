package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remindly/core/internal/domain/entities"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

var (
	taskListCols = []string{"id", "user_id", "title", "description", "items", "reminder", "created_at", "updated_at"}
	userCols     = []string{"id", "username", "email", "password_hash", "avatar", "created_at", "updated_at"}
	ts           = time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)
)

func TestTaskListRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)

	list := &entities.TaskList{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "Groceries",
		Items:     entities.TaskItems{{ID: uuid.New(), Title: "Milk", CreatedAt: ts}},
		Reminder:  &entities.Reminder{Date: "2025-06-01", Time: "18:00"},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	itemsJSON, err := list.Items.Value()
	require.NoError(t, err)

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+task_lists\s*\(id,\s*user_id,\s*title,\s*description,\s*items,\s*reminder,\s*created_at,\s*updated_at\)`).
		WithArgs(list.ID, list.OwnerID, "Groceries", "", itemsJSON, `{"date":"2025-06-01","time":"18:00"}`, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), list))
}

func TestTaskListRepository_CreateWithoutReminderSendsNull(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)

	list := &entities.TaskList{ID: uuid.New(), OwnerID: uuid.New(), Title: "Empty", CreatedAt: ts, UpdatedAt: ts}

	mock.ExpectExec(`INSERT\s+INTO\s+task_lists`).
		WithArgs(list.ID, list.OwnerID, "Empty", "", "[]", nil, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), list))
}

func TestTaskListRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	id, owner, itemID := uuid.New(), uuid.New(), uuid.New()

	items := `[{"id":"` + itemID.String() + `","title":"Milk","link":"","description":"","image":"/uploads/task-images/a.png","completed":true,"createdAt":"2025-05-30T09:00:00Z"}]`
	rows := sqlmock.NewRows(taskListCols).
		AddRow(id.String(), owner.String(), "Groceries", "weekly", []byte(items), []byte(`{"date":"2025-06-01","time":"18:00"}`), ts, ts)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,.*FROM\s+task_lists\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "weekly", got.Description)
	require.Len(t, got.Items, 1)
	assert.Equal(t, itemID, got.Items[0].ID)
	assert.True(t, got.Items[0].Completed)
	assert.Equal(t, "/uploads/task-images/a.png", *got.Items[0].Image)
	require.NotNil(t, got.Reminder)
	assert.Equal(t, "18:00", got.Reminder.Time)
}

func TestTaskListRepository_GetByIDNullReminder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows(taskListCols).
		AddRow(id.String(), uuid.New().String(), "Groceries", "", []byte(`[]`), nil, ts, ts)
	mock.ExpectQuery(`FROM\s+task_lists\s+WHERE\s+id`).WithArgs(id).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got.Reminder)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

func TestTaskListRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`FROM\s+task_lists\s+WHERE\s+id`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, entities.ErrTaskListNotFound)
}

func TestTaskListRepository_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	owner := uuid.New()
	newer, older := uuid.New(), uuid.New()

	rows := sqlmock.NewRows(taskListCols).
		AddRow(newer.String(), owner.String(), "B", "", []byte(`[]`), nil, ts.Add(time.Hour), ts.Add(time.Hour)).
		AddRow(older.String(), owner.String(), "A", "", []byte(`[]`), nil, ts, ts)

	mock.ExpectQuery(`(?s)FROM\s+task_lists\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs(owner).
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0].ID)
	assert.Equal(t, older, got[1].ID)
}

func TestTaskListRepository_ListByOwnerEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	owner := uuid.New()

	mock.ExpectQuery(`FROM\s+task_lists\s+WHERE\s+user_id`).WithArgs(owner).WillReturnRows(sqlmock.NewRows(taskListCols))

	got, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTaskListRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	list := &entities.TaskList{ID: uuid.New(), Title: "New", Items: entities.TaskItems{}, UpdatedAt: ts}

	mock.ExpectExec(`(?s)UPDATE\s+task_lists\s+SET\s+title\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1`).
		WithArgs(list.ID, "New", "", "[]", nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), list))

	mock.ExpectExec(`UPDATE\s+task_lists`).
		WithArgs(list.ID, "New", "", "[]", nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), list), entities.ErrTaskListNotFound)
}

func TestTaskListRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskListRepository(db)
	id := uuid.New()

	mock.ExpectExec(`^DELETE\s+FROM\s+task_lists\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE\s+FROM\s+task_lists`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), entities.ErrTaskListNotFound)

	mock.ExpectExec(`DELETE\s+FROM\s+task_lists`).WithArgs(id).WillReturnError(errors.New("db down"))
	err := repo.Delete(context.Background(), id)
	assert.ErrorContains(t, err, "db down")
	assert.False(t, errors.Is(err, entities.ErrTaskListNotFound))
}

func TestUserRepository_CreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_username_key", entities.ErrUsernameTaken},
		{"users_email_key", entities.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db)
			user := &entities.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: ts, UpdatedAt: ts}

			mock.ExpectExec(`INSERT\s+INTO\s+users`).
				WithArgs(user.ID, "alice", "alice@example.com", "h", nil, ts, ts).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			assert.ErrorIs(t, repo.Create(context.Background(), user), tt.want)
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows(userCols).AddRow(id.String(), "alice", "alice@example.com", "hash", "me.png", ts, ts)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "me.png", *got.Avatar)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+username`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}

func TestUserRepository_UpdateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+username\s*=\s*\$2`).WithArgs(id, "bob", ts).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateUsername(context.Background(), id, "bob", ts))

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+username`).WithArgs(id, "carol", ts).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
	assert.ErrorIs(t, repo.UpdateUsername(context.Background(), id, "carol", ts), entities.ErrUsernameTaken)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+username`).WithArgs(uuid.Nil, "dave", ts).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateUsername(context.Background(), uuid.Nil, "dave", ts), entities.ErrUserNotFound)
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	file := "new.png"

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+avatar\s*=\s*\$2`).WithArgs(id, file, ts).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateAvatar(context.Background(), id, &file, ts))
}
