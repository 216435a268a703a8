package services

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/infrastructure/metrics"
	"github.com/remindly/core/internal/ports"
)

const inlineImagePrefix = "data:image/"

var inlineImagePattern = regexp.MustCompile(`^data:image/(png|jpeg|gif);base64,(.+)$`)

var inlineImageExt = map[string]string{
	"png":  "png",
	"jpeg": "jpeg",
	"gif":  "gif",
}

// ImageIngestor turns inline base64 item images into stored task images.
// A malformed or unstorable image never fails the surrounding request: the item just
// loses its image.
type ImageIngestor struct {
	blobs   ports.BlobStore
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewImageIngestor creates a new image ingestor
func NewImageIngestor(blobs ports.BlobStore, m *metrics.Metrics, logger *logger.Logger) *ImageIngestor {
	return &ImageIngestor{
		blobs:   blobs,
		metrics: m,
		logger:  logger.WithComponent("image_ingestor"),
	}
}

// Resolve returns the image reference to persist for one item. A stored task image is
// only kept when owned contains it; anything else in that namespace is dropped.
func (i *ImageIngestor) Resolve(ctx context.Context, itemTitle string, raw *string, owned map[string]bool) *string {
	if raw == nil || *raw == "" {
		return nil
	}

	if isTaskImagePath(*raw) {
		if !owned[*raw] {
			i.logger.Warnw("Dropping item image not stored for this list", "item", itemTitle, "path", *raw)
			i.metrics.ItemImage(metrics.ImageInvalid)
			return nil
		}
		ref := *raw
		return &ref
	}

	if !strings.HasPrefix(*raw, inlineImagePrefix) {
		ref := *raw
		return &ref
	}

	m := inlineImagePattern.FindStringSubmatch(*raw)
	if m == nil {
		i.logger.Warnw("Dropping item image with unsupported encoding", "item", itemTitle)
		i.metrics.ItemImage(metrics.ImageInvalid)
		return nil
	}

	data, err := decodeBase64(m[2])
	if err != nil || len(data) == 0 {
		i.logger.Warnw("Dropping undecodable item image", "item", itemTitle, "format", m[1])
		i.metrics.ItemImage(metrics.ImageInvalid)
		return nil
	}

	path, err := i.blobs.Store(ctx, ports.NamespaceTaskImages, data, inlineImageExt[m[1]])
	if err != nil {
		i.logger.Errorw("Failed to store item image", "item", itemTitle, "error", err)
		i.metrics.ItemImage(metrics.ImageFailed)
		return nil
	}

	i.metrics.ItemImage(metrics.ImageStored)
	return &path
}

// ResolveAll rewrites every item image in place and returns the paths it newly stored.
// prior holds the images the list referenced before this write.
func (i *ImageIngestor) ResolveAll(ctx context.Context, items entities.TaskItems, prior entities.TaskItems) []string {
	owned := make(map[string]bool)
	for _, p := range prior.ImagePaths() {
		owned[p] = true
	}

	var stored []string
	for idx := range items {
		inline := items[idx].Image != nil && strings.HasPrefix(*items[idx].Image, inlineImagePrefix)
		items[idx].Image = i.Resolve(ctx, items[idx].Title, items[idx].Image, owned)
		if inline && items[idx].Image != nil {
			stored = append(stored, *items[idx].Image)
		}
	}
	return stored
}

func isTaskImagePath(ref string) bool {
	return strings.HasPrefix(ref, ports.BlobPublicPrefix+"/"+string(ports.NamespaceTaskImages)+"/")
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
