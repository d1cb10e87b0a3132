package utils

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores media and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file interface{}, publicID, folder string) (string, error)
}

type CloudinaryUploader struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret, uploadPreset string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, uploadPreset: uploadPreset}, nil
}

// Upload stores an image resized for service cards and returns the secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file interface{}, publicID, folder string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UploadPreset:   u.uploadPreset,
		Transformation: "c_fill,w_800,h_600",
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}
