package ports

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remindly/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string, updatedAt time.Time) error
}

// TaskListRepository persists task lists as whole documents: items and reminder are
// always read and written together with the list row.
type TaskListRepository interface {
	Create(ctx context.Context, list *entities.TaskList) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskList, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.TaskList, error)
	Update(ctx context.Context, list *entities.TaskList) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlobNamespace separates unrelated uploads so filenames can never collide across them
type BlobNamespace string

const (
	NamespaceAvatars    BlobNamespace = "avatars"
	NamespaceTaskImages BlobNamespace = "task-images"
)

// BlobPublicPrefix is the URL prefix under which stored blobs are served
const BlobPublicPrefix = "/uploads"

// KnownNamespace reports whether ns is one of the namespaces above
func KnownNamespace(ns BlobNamespace) bool {
	return ns == NamespaceAvatars || ns == NamespaceTaskImages
}

// BlobPath builds the server-relative path of a stored file
func BlobPath(ns BlobNamespace, filename string) string {
	return path.Join(BlobPublicPrefix, string(ns), filename)
}

// InNamespace reports whether relPath points at a file stored under ns
func InNamespace(relPath string, ns BlobNamespace) bool {
	_, _, ok := SplitBlobPath(relPath)
	return ok && strings.HasPrefix(relPath, BlobPublicPrefix+"/"+string(ns)+"/")
}

// SplitBlobPath parses "/uploads/<namespace>/<file>". It rejects unknown namespaces
// and anything that is not a single plain filename.
func SplitBlobPath(relPath string) (BlobNamespace, string, bool) {
	rest, ok := strings.CutPrefix(relPath, BlobPublicPrefix+"/")
	if !ok {
		return "", "", false
	}

	ns, file, ok := strings.Cut(rest, "/")
	if !ok || !KnownNamespace(BlobNamespace(ns)) {
		return "", "", false
	}

	if file == "" || file == "." || file == ".." || strings.ContainsAny(file, `/\`) {
		return "", "", false
	}

	return BlobNamespace(ns), file, true
}

// BlobStore stores uploaded bytes. Store returns the server-relative path of the new file.
type BlobStore interface {
	Store(ctx context.Context, ns BlobNamespace, data []byte, ext string) (string, error)
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, relPath string) error
}
