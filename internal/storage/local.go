package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	LocalURLPrefix = "/uploads"

	photosDir = "photos"
	videosDir = "videos"
)

var ErrOutsideUploadDir = errors.New("file path outside uploads directory")

// LocalStorage writes assets under baseDir; they are served at /uploads.
type LocalStorage struct {
	baseDir string
}

func NewLocal(baseDir string) (*LocalStorage, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, photosDir), filepath.Join(baseDir, videosDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

func (l *LocalStorage) Name() string {
	return "local"
}

func (l *LocalStorage) Root() string {
	return l.baseDir
}

func (l *LocalStorage) Upload(_ context.Context, r io.Reader, obj Object) (*Asset, error) {
	folder := photosDir
	if obj.ResourceType == ResourceVideo {
		folder = videosDir
	}

	ext := strings.ToLower(filepath.Ext(obj.Filename))
	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102-150405"),
		uuid.NewString()[:8],
		ext,
	)
	publicID := folder + "/" + filename

	dst, err := os.Create(filepath.Join(l.baseDir, folder, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, r)
	if err != nil {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &Asset{
		URL:      LocalURLPrefix + "/" + publicID,
		PublicID: publicID,
		Bytes:    n,
		Format:   strings.TrimPrefix(ext, "."),
	}, nil
}

func (l *LocalStorage) Delete(_ context.Context, publicID, _ string) error {
	fullPath, err := l.resolve(publicID)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", publicID)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a public id (or a /uploads URL) to a path inside baseDir.
func (l *LocalStorage) resolve(publicID string) (string, error) {
	rel := strings.TrimPrefix(publicID, LocalURLPrefix+"/")
	rel = strings.TrimPrefix(rel, "/")

	baseAbs, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseAbs, rel))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
		if realBase, err := filepath.EvalSymlinks(baseAbs); err == nil {
			baseAbs = realBase
		}
	}

	if absPath == baseAbs || !strings.HasPrefix(absPath, baseAbs+string(filepath.Separator)) {
		return "", ErrOutsideUploadDir
	}
	return absPath, nil
}
