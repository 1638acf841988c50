package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg config.StorageConfig) (*CloudinaryStorage, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, errors.New("cloudinary credentials are required")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}

	return &CloudinaryStorage{cld: cld, folder: cfg.CloudinaryFolder}, nil
}

func (s *CloudinaryStorage) Name() string {
	return "cloudinary"
}

func (s *CloudinaryStorage) Upload(ctx context.Context, r io.Reader, obj Object) (*Asset, error) {
	folder := s.folder
	if obj.Folder != "" {
		folder = obj.Folder
	}

	resourceType := obj.ResourceType
	if resourceType == "" {
		resourceType = "auto"
	}

	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		ResourceType:   resourceType,
		UniqueFilename: api.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if res.Error.Message != "" {
		return nil, errors.New(res.Error.Message)
	}

	return &Asset{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Bytes:    int64(res.Bytes),
		Width:    res.Width,
		Height:   res.Height,
		Format:   res.Format,
	}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, publicID, resourceType string) error {
	if resourceType == "" {
		resourceType = ResourceImage
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Result)
	}
	return nil
}
