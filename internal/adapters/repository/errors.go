package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

var (
	_ ports.UserRepository     = (*UserRepository)(nil)
	_ ports.TaskListRepository = (*TaskListRepository)(nil)
)

const uniqueViolation = pq.ErrorCode("23505")

// Unique constraint names from the users migration
const (
	usersUsernameKey = "users_username_key"
	usersEmailKey    = "users_email_key"
)

// mapUniqueViolation turns users unique-constraint failures into domain errors
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}

	switch pqErr.Constraint {
	case usersUsernameKey:
		return entities.ErrUsernameTaken
	case usersEmailKey:
		return entities.ErrEmailTaken
	}
	return err
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
