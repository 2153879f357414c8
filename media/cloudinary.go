package media

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Kind is the Cloudinary resource type of an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Uploader stores a file on the media host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, kind Kind) (string, error)
}

// CloudinaryConfig holds Cloudinary configuration
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// CloudinaryUploader uploads files to Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	preset string
}

// NewCloudinaryUploader initializes the Cloudinary client
func NewCloudinaryUploader(cfg CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials are not set")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld, preset: cfg.UploadPreset}, nil
}

// Upload sends file to Cloudinary under folder and returns the secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, folder string, kind Kind) (string, error) {
	params := uploader.UploadParams{
		PublicID:     uuid.NewString(),
		Folder:       folder,
		UploadPreset: u.preset,
		ResourceType: string(kind),
	}
	if kind == KindImage {
		// Service photos are shown full width on phones; cap the stored size.
		params.Transformation = "c_limit,w_1600,h_1600"
	}

	resp, err := u.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// DisabledUploader rejects every upload; it is used when Cloudinary is not
// configured so the rest of the API still starts.
type DisabledUploader struct{}

var ErrUploadsDisabled = errors.New("media uploads are not configured")

func (DisabledUploader) Upload(context.Context, io.Reader, string, Kind) (string, error) {
	return "", ErrUploadsDisabled
}
