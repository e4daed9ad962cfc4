package storage

import (
	"encoding/base64"
	"strings"

	"beamchat/internal/pkg/errs"
)

const (
	// MaxImageSizeMB is the maximum decoded image size in megabytes.
	MaxImageSizeMB = 5

	// MaxImageSize is the maximum decoded image size in bytes.
	MaxImageSize = MaxImageSizeMB * 1024 * 1024
)

// AllowedImageMIMETypes defines the permitted image formats for chat images
// and avatars.
var AllowedImageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// MIMEToExt maps permitted MIME types to the file extension used in object keys.
var MIMEToExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Image is a decoded, validated upload ready for the object store.
type Image struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// ParseImageDataURI validates and decodes a base64 data URI of the form
// "data:image/png;base64,....". Browsers submit images this way in both the
// message send and profile update requests.
func ParseImageDataURI(dataURI string) (*Image, *errs.CustomError) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	mimeType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if _, allowed := AllowedImageMIMETypes[mimeType]; !allowed {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	// Reject oversized payloads before decoding. Base64 inflates by 4/3.
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxImageSize {
		return nil, errs.NewError(errs.ErrImageTooLarge, MaxImageSizeMB)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	if len(data) == 0 {
		return nil, errs.NewError(errs.ErrImageInvalid)
	}

	return &Image{
		MIMEType: mimeType,
		Ext:      MIMEToExt[mimeType],
		Data:     data,
	}, nil
}
