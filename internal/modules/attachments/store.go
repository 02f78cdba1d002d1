// Package attachments stores trade screenshots on disk or in S3-compatible
// object storage.
package attachments

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists an attachment payload and returns a stable reference
type Store interface {
	Save(ctx context.Context, tradeID int64, filename, contentType string, body io.Reader) (string, error)
}

// allowedContentTypes maps accepted MIME types to their default extension
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ValidateContentType rejects anything outside the image allow-list
func ValidateContentType(contentType string) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if _, ok := allowedContentTypes[mediaType]; !ok {
		return fmt.Errorf("%w: only image files (JPEG, PNG, WebP) are allowed, got %q", domain.ErrInvalidInput, contentType)
	}
	return nil
}

// ObjectName builds trade_<id>_<YYYYmmdd_HHMMSS>_<uuid8><ext>. The extension
// follows the content type; the uploaded filename is only consulted when the
// type is not on the allow-list.
func ObjectName(tradeID int64, filename, contentType string, at time.Time) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	ext, ok := allowedContentTypes[mediaType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filepath.Base(filename)))
		if ext == "." || len(ext) > 6 {
			ext = ""
		}
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("trade_%d_%s_%s%s", tradeID, at.UTC().Format("20060102_150405"), suffix, ext)
}

// NewStore builds the store selected by cfg.Backend
func NewStore(ctx context.Context, cfg *config.AttachmentConfig, log zerolog.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("attachment config is nil")
	}

	switch cfg.Backend {
	case config.AttachmentBackendLocal, "":
		return NewLocalStore(cfg.Dir, log)
	case config.AttachmentBackendS3:
		return NewS3Store(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown attachment backend %q", cfg.Backend)
	}
}
