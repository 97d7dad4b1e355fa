package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadProfilePicture stores the image under a fresh public ID each time.
// The caller deletes the previous asset once the new URL is saved, so a
// half-failed upload never leaves the user without a picture.
func (app *application) uploadProfilePicture(ctx context.Context, file io.Reader, userID int64) (string, error) {
	resp, err := app.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         "profile_pictures",
		PublicID:       fmt.Sprintf("user_%d_%d", userID, time.Now().UnixNano()),
		Overwrite:      api.Bool(false),
		Transformation: "w_300,h_300,c_fill,q_auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	return resp.SecureURL, nil
}

func (app *application) deletePhotoFromCloudinary(photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// extractPublicIDFromURL pulls the public ID out of a Cloudinary delivery
// URL. Delivery URLs look like .../upload/v1740815725/folder/name.png; the
// public ID is everything after the version segment, without the extension.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part != "upload" || i+2 >= len(pathParts) {
			continue
		}
		rest := pathParts[i+1:]
		if len(rest[0]) > 1 && rest[0][0] == 'v' {
			rest = rest[1:]
		}
		publicID := strings.Join(rest, "/")
		if ext := path.Ext(publicID); ext != "" {
			publicID = strings.TrimSuffix(publicID, ext)
		}
		if publicID == "" {
			break
		}
		return publicID, nil
	}

	return "", errors.New("failed to extract public ID from URL")
}
