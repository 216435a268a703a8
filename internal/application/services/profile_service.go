package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/infrastructure/metrics"
	"github.com/remindly/core/internal/ports"
)

var avatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ProfileService handles the signed-in user's own profile
type ProfileService struct {
	userRepo       ports.UserRepository
	blobs          ports.BlobStore
	maxAvatarBytes int64
	metrics        *metrics.Metrics
	logger         *logger.Logger
	now            func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(userRepo ports.UserRepository, blobs ports.BlobStore, maxAvatarBytes int64, m *metrics.Metrics, logger *logger.Logger) *ProfileService {
	return &ProfileService{
		userRepo:       userRepo,
		blobs:          blobs,
		maxAvatarBytes: maxAvatarBytes,
		metrics:        m,
		logger:         logger.WithComponent("profile"),
		now:            time.Now,
	}
}

// GetProfile returns the public view of a user
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*ports.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageError("get user", err)
	}

	resp := &ports.ProfileResponse{
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if user.Avatar != nil && *user.Avatar != "" {
		p := ports.BlobPath(ports.NamespaceAvatars, *user.Avatar)
		resp.ProfileImage = &p
	}

	return resp, nil
}

// UpdateUsername sets a new username. Uniqueness is left to the users table constraint.
func (s *ProfileService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (string, error) {
	username = entities.NormalizeUsername(username)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return "", entities.NewValidationError("username is too short").
			WithField("username", fmt.Sprintf("must be at least %d characters", minUsernameLength))
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username, s.now().UTC()); err != nil {
		return "", storageError("update username", err)
	}

	s.logger.LogUserAction(userID.String(), "username_changed", map[string]interface{}{
		"username": username,
	})

	return username, nil
}

// UploadAvatar replaces the user's avatar and returns the new file's server-relative path
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte, originalFileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFileName))

	switch {
	case len(data) == 0:
		return "", entities.NewValidationError("no image uploaded").WithField("image", "is required")
	case !avatarExtensions[ext]:
		return "", entities.NewValidationError("unsupported image type").
			WithField("image", "must be a png, jpg, jpeg, gif or webp file")
	case s.maxAvatarBytes > 0 && int64(len(data)) > s.maxAvatarBytes:
		return "", entities.NewValidationError("image is too large").
			WithField("image", fmt.Sprintf("must be at most %d bytes", s.maxAvatarBytes))
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", storageError("get user", err)
	}

	hadAvatar := user.Avatar != nil && *user.Avatar != ""
	if hadAvatar {
		s.discardAvatar(ctx, ports.BlobPath(ports.NamespaceAvatars, *user.Avatar))
	}

	relPath, err := s.blobs.Store(ctx, ports.NamespaceAvatars, data, strings.TrimPrefix(ext, "."))
	if err != nil {
		if hadAvatar {
			s.clearAvatar(ctx, userID)
		}
		return "", fmt.Errorf("store avatar: %w: %w", entities.ErrStorage, err)
	}

	filename := path.Base(relPath)
	if err := s.userRepo.UpdateAvatar(ctx, userID, &filename, s.now().UTC()); err != nil {
		s.discardAvatar(ctx, relPath)
		if hadAvatar {
			s.clearAvatar(ctx, userID)
		}
		return "", storageError("update avatar", err)
	}

	s.logger.LogUserAction(userID.String(), "avatar_uploaded", map[string]interface{}{
		"avatar": filename,
		"bytes":  len(data),
	})

	return relPath, nil
}

// clearAvatar drops the reference to an avatar file that has already been deleted
func (s *ProfileService) clearAvatar(ctx context.Context, userID uuid.UUID) {
	if err := s.userRepo.UpdateAvatar(ctx, userID, nil, s.now().UTC()); err != nil {
		s.logger.Errorw("Failed to clear avatar reference", "user_id", userID, "error", err)
	}
}

func (s *ProfileService) discardAvatar(ctx context.Context, relPath string) {
	err := s.blobs.Delete(ctx, relPath)
	if err != nil && !errors.Is(err, entities.ErrBlobNotFound) {
		s.logger.Warnw("Failed to delete avatar", "path", relPath, "error", err)
		s.metrics.BlobDelete(string(ports.NamespaceAvatars), metrics.DeleteFailed)
		return
	}
	s.metrics.BlobDelete(string(ports.NamespaceAvatars), metrics.DeleteOK)
}
