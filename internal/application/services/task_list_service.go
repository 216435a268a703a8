package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/infrastructure/metrics"
	"github.com/remindly/core/internal/ports"
)

// TaskListService handles task list operations. A list, its items and its reminder are
// always loaded, mutated and written back as one document.
type TaskListService struct {
	repo    ports.TaskListRepository
	blobs   ports.BlobStore
	images  *ImageIngestor
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewTaskListService creates a new task list service
func NewTaskListService(repo ports.TaskListRepository, blobs ports.BlobStore, m *metrics.Metrics, logger *logger.Logger) *TaskListService {
	return &TaskListService{
		repo:    repo,
		blobs:   blobs,
		images:  NewImageIngestor(blobs, m, logger),
		metrics: m,
		logger:  logger.WithComponent("task_lists"),
		now:     time.Now,
	}
}

// CreateTaskList creates a new list owned by ownerID. The reminder always starts empty.
func (s *TaskListService) CreateTaskList(ctx context.Context, ownerID uuid.UUID, req ports.CreateTaskListRequest) (*entities.TaskList, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, titleRequired()
	}

	now := s.now().UTC()

	items, err := buildItems(req.Items, nil, now)
	if err != nil {
		return nil, err
	}

	list := &entities.TaskList{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := entities.Validate(list); err != nil {
		return nil, err
	}

	stored := s.images.ResolveAll(ctx, list.Items, nil)

	if err := s.repo.Create(ctx, list); err != nil {
		s.discardImages(ctx, stored)
		return nil, storageError("create task list", err)
	}

	s.logger.LogUserAction(ownerID.String(), "task_list_created", map[string]interface{}{
		"task_list_id": list.ID,
		"items":        len(list.Items),
	})

	return list, nil
}

// ListTaskLists returns the owner's lists, newest first
func (s *TaskListService) ListTaskLists(ctx context.Context, ownerID uuid.UUID) ([]*entities.TaskList, error) {
	lists, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError("list task lists", err)
	}
	if lists == nil {
		lists = []*entities.TaskList{}
	}
	return lists, nil
}

// GetTaskList returns one list if userID owns it
func (s *TaskListService) GetTaskList(ctx context.Context, id, userID uuid.UUID) (*entities.TaskList, error) {
	return s.loadOwned(ctx, id, userID)
}

// UpdateTaskList applies a partial update. Absent fields stay untouched, items are
// replaced wholesale, and a present reminder (including null) replaces the stored one.
func (s *TaskListService) UpdateTaskList(ctx context.Context, id, userID uuid.UUID, req ports.UpdateTaskListRequest) (*entities.TaskList, error) {
	current, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	next := current.Clone()

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, titleRequired()
		}
		next.Title = title
	}

	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}

	if req.Items != nil {
		items, err := buildItems(*req.Items, current.Items.ByID(), now)
		if err != nil {
			return nil, err
		}
		next.Items = items
	}

	if req.Reminder.Set {
		next.Reminder = normalizeReminder(req.Reminder.Value)
	}

	next.UpdatedAt = now

	if err := entities.Validate(next); err != nil {
		return nil, err
	}

	var stored []string
	if req.Items != nil {
		stored = s.images.ResolveAll(ctx, next.Items, current.Items)
	}

	if err := s.repo.Update(ctx, next); err != nil {
		s.discardImages(ctx, stored)
		return nil, storageError("update task list", err)
	}

	if req.Items != nil {
		s.discardImages(ctx, droppedImages(current.Items, next.Items))
	}

	s.logger.LogUserAction(userID.String(), "task_list_updated", map[string]interface{}{
		"task_list_id": next.ID,
		"items":        len(next.Items),
	})

	return next, nil
}

// DeleteTaskList removes the list and then, best-effort, the images its items stored
func (s *TaskListService) DeleteTaskList(ctx context.Context, id, userID uuid.UUID) error {
	list, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError("delete task list", err)
	}

	s.discardImages(ctx, list.ImagePaths())

	s.logger.LogUserAction(userID.String(), "task_list_deleted", map[string]interface{}{
		"task_list_id": id,
	})

	return nil
}

func (s *TaskListService) loadOwned(ctx context.Context, id, userID uuid.UUID) (*entities.TaskList, error) {
	list, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get task list", err)
	}

	if !list.IsOwnedBy(userID) {
		s.logger.LogSecurityEvent("task_list_access_denied", userID.String(), "", map[string]interface{}{
			"task_list_id": id,
		})
		return nil, entities.ErrForbidden
	}

	return list, nil
}

// discardImages deletes stored item images. Paths outside the item-image namespace
// (external links, avatars) are never touched.
func (s *TaskListService) discardImages(ctx context.Context, paths []string) {
	for _, p := range paths {
		if !ports.InNamespace(p, ports.NamespaceTaskImages) {
			continue
		}

		err := s.blobs.Delete(ctx, p)
		if err != nil && !errors.Is(err, entities.ErrBlobNotFound) {
			s.logger.Warnw("Failed to delete item image", "path", p, "error", err)
			s.metrics.BlobDelete(string(ports.NamespaceTaskImages), metrics.DeleteFailed)
			continue
		}
		s.metrics.BlobDelete(string(ports.NamespaceTaskImages), metrics.DeleteOK)
	}
}

// buildItems turns raw payload items into the new item sequence. Items whose id matches
// a prior item keep that item's creation time.
func buildItems(inputs []ports.TaskItemInput, prior map[uuid.UUID]entities.TaskItem, now time.Time) (entities.TaskItems, error) {
	items := make(entities.TaskItems, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	var verr *entities.ValidationError

	for i, in := range inputs {
		id := uuid.New()
		if raw := strings.TrimSpace(in.ClientID()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				verr = invalidItem(verr, i, "must be a UUID")
				continue
			}
			id = parsed
		}

		if seen[id] {
			verr = invalidItem(verr, i, "is duplicated in this list")
			continue
		}
		seen[id] = true

		item := entities.TaskItem{
			ID:          id,
			Title:       strings.TrimSpace(in.Title),
			Link:        strings.TrimSpace(in.Link),
			Description: strings.TrimSpace(in.Description),
			Image:       in.Image,
			Completed:   in.Completed != nil && *in.Completed,
			CreatedAt:   now,
		}
		if prev, ok := prior[id]; ok && !prev.CreatedAt.IsZero() {
			item.CreatedAt = prev.CreatedAt
		}

		items = append(items, item)
	}

	if verr != nil {
		return nil, verr
	}
	return items, nil
}

func invalidItem(verr *entities.ValidationError, index int, reason string) *entities.ValidationError {
	if verr == nil {
		verr = entities.NewValidationError("invalid items")
	}
	return verr.WithField(fmt.Sprintf("items[%d].id", index), reason)
}

// droppedImages lists images referenced by before that no item of after references
func droppedImages(before, after entities.TaskItems) []string {
	kept := make(map[string]bool)
	for _, p := range after.ImagePaths() {
		kept[p] = true
	}

	var dropped []string
	for _, p := range before.ImagePaths() {
		if !kept[p] {
			dropped = append(dropped, p)
		}
	}
	return dropped
}

// normalizeReminder trims both parts; an empty reminder clears the field
func normalizeReminder(r *entities.Reminder) *entities.Reminder {
	if r == nil || r.IsZero() {
		return nil
	}
	return &entities.Reminder{
		Date: strings.TrimSpace(r.Date),
		Time: strings.TrimSpace(r.Time),
	}
}

func titleRequired() error {
	return entities.NewValidationError("title is required").WithField("title", "is required")
}

// storageError passes domain errors through and tags everything else as a storage failure
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, entities.ErrTaskListNotFound),
		errors.Is(err, entities.ErrUserNotFound),
		errors.Is(err, entities.ErrUsernameTaken),
		errors.Is(err, entities.ErrEmailTaken),
		errors.Is(err, entities.ErrStorage):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, entities.ErrStorage, err)
}
