package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/zap"
)

// Artifact is a rendered document ready to be handed to the operator.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Sink delivers artifacts somewhere the operator can reach them and
// returns where the artifact ended up.
type Sink interface {
	Deliver(ctx context.Context, a Artifact) (string, error)
}

var ErrEmptyFilename = errors.New("empty_filename")

// New picks a sink from cfg.DeliveryTarget: "dir:<path>" (the default is
// ./exports) or "s3://bucket/prefix".
func New(cfg config.Config, log *zap.Logger) (Sink, error) {
	target := strings.TrimSpace(cfg.DeliveryTarget)
	switch {
	case target == "":
		return NewDirSink("./exports", log), nil
	case strings.HasPrefix(target, "dir:"):
		return NewDirSink(strings.TrimPrefix(target, "dir:"), log), nil
	case strings.HasPrefix(target, "s3://"):
		return NewS3Sink(target, cfg.AWSRegion, log)
	default:
		return nil, fmt.Errorf("unsupported delivery target %q", target)
	}
}

func checkFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFilename
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact filename %q", name)
	}
	return nil
}
