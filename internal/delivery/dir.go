package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DirSink writes artifacts into a local directory.
type DirSink struct {
	dir string
	log *zap.Logger
}

func NewDirSink(dir string, log *zap.Logger) *DirSink {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirSink{dir: dir, log: log.Named("delivery.dir")}
}

// Deliver writes through a temp file and renames it into place, so a
// reader never sees a partial document.
func (s *DirSink) Deliver(ctx context.Context, a Artifact) (string, error) {
	if err := checkFilename(a.Filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+a.Filename+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	dest := filepath.Join(s.dir, a.Filename)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move artifact into place: %w", err)
	}
	s.log.Debug("artifact written", zap.String("path", dest), zap.Int("bytes", len(a.Body)))
	return dest, nil
}
