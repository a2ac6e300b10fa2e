package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Camera produces one captured image per attempt. Implementations report
// ErrPermissionDenied when access is refused and ErrCaptureCancelled when the
// user backs out.
type Camera interface {
	RequestPermission(ctx context.Context) error
	Capture(ctx context.Context) ([]byte, error)
}

// FileCamera reads captures from a fixed path, the integration used by the
// terminal binary where a capture daemon drops frames on disk.
type FileCamera struct {
	Path string
}

func (c FileCamera) RequestPermission(_ context.Context) error {
	if _, err := os.Stat(c.Path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return ErrPermissionDenied
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil // frame may appear later; permission itself is fine
		}
		return fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return nil
}

func (c FileCamera) Capture(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if len(data) == 0 {
		return nil, ErrCaptureFailed
	}
	return data, nil
}
