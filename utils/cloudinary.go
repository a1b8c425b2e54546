package utils

import (
	"context"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Upload streams a file to Cloudinary storage and returns its secure URL.
func (u CloudinaryUploader) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cld, err := cloudinary.NewFromParams(u.CloudName, u.APIKey, u.APISecret)
	if err != nil {
		return "", err
	}

	uniqueFilename := true
	uploadResult, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       filename,
		Folder:         u.Folder,
		UniqueFilename: &uniqueFilename,
	})
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}
