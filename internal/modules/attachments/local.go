package attachments

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LocalStore writes attachments into a directory. References are file paths.
type LocalStore struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string, log zerolog.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("attachment directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &LocalStore{
		dir: dir,
		now: time.Now,
		log: log.With().Str("component", "attachments").Str("backend", "local").Logger(),
	}, nil
}

// Save writes body to a new file and returns its path
func (s *LocalStore) Save(ctx context.Context, tradeID int64, filename, contentType string, body io.Reader) (string, error) {
	if err := ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, ObjectName(tradeID, filename, contentType, s.now()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	s.log.Info().Int64("trade_id", tradeID).Str("path", path).Int64("bytes", n).Msg("Attachment stored")
	return path, nil
}
