package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	cldapi "github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader implements Uploader against the Cloudinary API.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader creates a new CloudinaryUploader from a
// cloudinary:// credentials URL.
func NewCloudinaryUploader(cloudinaryURL string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload sends the file at localPath to Cloudinary under the given folder.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath, folder string) (*Result, error) {
	resp, err := u.cld.Upload.Upload(ctx, localPath, cldapi.UploadParams{
		Folder: folder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to cloudinary: %w", localPath, err)
	}
	return &Result{
		PublicID: resp.PublicID,
		URL:      resp.SecureURL,
	}, nil
}

// Delete removes an uploaded asset from Cloudinary by its public ID.
func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	if _, err := u.cld.Upload.Destroy(ctx, cldapi.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete cloudinary asset %s: %w", publicID, err)
	}
	return nil
}
