package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

var errBoom = errors.New("boom")

// fakeTaskListRepo keeps deep copies so tests observe only what was persisted
type fakeTaskListRepo struct {
	mu        sync.Mutex
	lists     map[uuid.UUID]*entities.TaskList
	failWrite error
	updates   int
}

func newFakeTaskListRepo() *fakeTaskListRepo {
	return &fakeTaskListRepo{lists: make(map[uuid.UUID]*entities.TaskList)}
}

func (r *fakeTaskListRepo) Create(_ context.Context, list *entities.TaskList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.lists[list.ID] = list.Clone()
	return nil
}

func (r *fakeTaskListRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.TaskList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, entities.ErrTaskListNotFound
	}
	return l.Clone(), nil
}

func (r *fakeTaskListRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entities.TaskList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.TaskList
	for _, l := range r.lists {
		if l.OwnerID == ownerID {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTaskListRepo) Update(_ context.Context, list *entities.TaskList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if _, ok := r.lists[list.ID]; !ok {
		return entities.ErrTaskListNotFound
	}
	r.updates++
	r.lists[list.ID] = list.Clone()
	return nil
}

func (r *fakeTaskListRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if _, ok := r.lists[id]; !ok {
		return entities.ErrTaskListNotFound
	}
	delete(r.lists, id)
	return nil
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entities.User
	failWrite error
	// failSetAvatar fails UpdateAvatar only when a new filename is being set
	failSetAvatar error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (r *fakeUserRepo) add(u *entities.User) *entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return entities.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return entities.ErrEmailTaken
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *fakeUserRepo) find(match func(*entities.User) bool) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	return r.find(func(u *entities.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	return r.find(func(u *entities.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	return r.find(func(u *entities.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, id uuid.UUID, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	u, ok := r.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.Username = username
	u.UpdatedAt = at
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, id uuid.UUID, avatar *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if avatar != nil && r.failSetAvatar != nil {
		return r.failSetAvatar
	}
	u, ok := r.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.Avatar = avatar
	u.UpdatedAt = at
	return nil
}

// recordingBlobStore keeps files in memory and records every delete attempt
type recordingBlobStore struct {
	mu         sync.Mutex
	files      map[string][]byte
	deleted    []string
	seq        int
	failStore  error
	failDelete error
}

func newRecordingBlobStore() *recordingBlobStore {
	return &recordingBlobStore{files: make(map[string][]byte)}
}

func (b *recordingBlobStore) Store(_ context.Context, ns ports.BlobNamespace, data []byte, ext string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failStore != nil {
		return "", b.failStore
	}
	b.seq++
	p := ports.BlobPath(ns, fmt.Sprintf("file-%d.%s", b.seq, ext))
	b.files[p] = append([]byte(nil), data...)
	return p, nil
}

func (b *recordingBlobStore) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[relPath]
	if !ok {
		return nil, entities.ErrBlobNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (b *recordingBlobStore) Delete(_ context.Context, relPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, relPath)
	if b.failDelete != nil {
		return b.failDelete
	}
	if _, ok := b.files[relPath]; !ok {
		return entities.ErrBlobNotFound
	}
	delete(b.files, relPath)
	return nil
}

func (b *recordingBlobStore) put(relPath string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[relPath] = []byte("img")
	return relPath
}

func (b *recordingBlobStore) has(relPath string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[relPath]
	return ok
}

func (b *recordingBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func setReminder(date, clock string) ports.OptionalReminder {
	return ports.OptionalReminder{Set: true, Value: &entities.Reminder{Date: date, Time: clock}}
}

func clearReminder() ports.OptionalReminder {
	return ports.OptionalReminder{Set: true}
}

func isValidationError(err error) bool {
	var ve *entities.ValidationError
	return errors.As(err, &ve)
}
