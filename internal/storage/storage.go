package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ResourceImage = "image"
	ResourceVideo = "video"
)

// Object describes an upload. Size may be -1 when unknown.
type Object struct {
	Filename     string
	ContentType  string
	Size         int64
	ResourceType string
	Folder       string
}

// Asset is what a provider hands back after storing an object. PublicID is
// the provider's handle for later deletion.
type Asset struct {
	URL      string
	PublicID string
	Bytes    int64
	Width    int
	Height   int
	Format   string
}

type Provider interface {
	Name() string
	Upload(ctx context.Context, r io.Reader, obj Object) (*Asset, error)
	Delete(ctx context.Context, publicID, resourceType string) error
}

// objectKey builds folder/2006/01/<uuid><ext> for key-addressed stores.
func objectKey(obj Object) string {
	ext := strings.ToLower(path.Ext(obj.Filename))
	key := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), ext)
	if folder := strings.Trim(obj.Folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	return key
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
}
