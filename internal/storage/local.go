package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bookreel/internal/logging"
)

// Local stores artifacts on the filesystem beneath a root directory.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal constructs a filesystem-backed store rooted at dir.
func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage root directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{
		root:   dir,
		logger: logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// Save writes data atomically via a temp file rename. Metadata, when present,
// is written to a sidecar JSON file.
func (l *Local) Save(ctx context.Context, key string, data []byte, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename artifact: %w", err)
	}

	if len(meta) > 0 {
		encoded, err := json.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("marshal metadata: %w", err)
		}
		if err := os.WriteFile(path+".meta.json", encoded, 0o644); err != nil {
			return "", fmt.Errorf("write metadata: %w", err)
		}
	}

	l.logger.Debug("artifact saved",
		logging.String("key", key),
		logging.Int("bytes", len(data)))

	return path, nil
}

// Load returns the bytes stored under key.
func (l *Local) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("artifact %q: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("read artifact %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key is present.
func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL returns a file:// reference for key.
func (l *Local) URL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	return "file://" + path, nil
}

// resolve maps a key to an absolute path and rejects traversal outside root.
func (l *Local) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage key required")
	}
	path := filepath.Join(l.root, filepath.FromSlash(key))
	cleaned := filepath.Clean(path)
	if cleaned != l.root && !strings.HasPrefix(cleaned, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q escapes root", key)
	}
	return cleaned, nil
}
