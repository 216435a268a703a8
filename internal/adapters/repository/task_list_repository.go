package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/remindly/core/internal/domain/entities"
)

const taskListColumns = `id, user_id, title, description, items, reminder, created_at, updated_at`

// TaskListRepository stores each task list as one row. Items and reminder live in JSONB
// columns, so a list is always read and written whole.
type TaskListRepository struct {
	db *sqlx.DB
}

// NewTaskListRepository creates a new task list repository
func NewTaskListRepository(db *sqlx.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

func (r *TaskListRepository) Create(ctx context.Context, list *entities.TaskList) error {
	query := `
		INSERT INTO task_lists (id, user_id, title, description, items, reminder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		list.ID, list.OwnerID, list.Title, list.Description, list.Items, list.Reminder,
		list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task list: %w", err)
	}

	return nil
}

func (r *TaskListRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskList, error) {
	query := `SELECT ` + taskListColumns + ` FROM task_lists WHERE id = $1`

	var list entities.TaskList
	err := r.db.GetContext(ctx, &list, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskListNotFound
		}
		return nil, fmt.Errorf("get task list: %w", err)
	}

	return &list, nil
}

func (r *TaskListRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.TaskList, error) {
	query := `SELECT ` + taskListColumns + ` FROM task_lists WHERE user_id = $1 ORDER BY created_at DESC, id`

	lists := []*entities.TaskList{}
	if err := r.db.SelectContext(ctx, &lists, query, ownerID); err != nil {
		return nil, fmt.Errorf("list task lists: %w", err)
	}

	return lists, nil
}

// Update overwrites the whole row. Concurrent updates of one list are last write wins.
func (r *TaskListRepository) Update(ctx context.Context, list *entities.TaskList) error {
	query := `
		UPDATE task_lists
		SET title = $2, description = $3, items = $4, reminder = $5, updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		list.ID, list.Title, list.Description, list.Items, list.Reminder, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task list: %w", err)
	}

	return expectOneRow(res, entities.ErrTaskListNotFound)
}

func (r *TaskListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task list: %w", err)
	}

	return expectOneRow(res, entities.ErrTaskListNotFound)
}
