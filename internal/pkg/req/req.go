/*
Package req provides helpers for parsing and binding HTTP request bodies.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"beamchat/internal/pkg/errs"
)

// MaxJSONBodySize limits request bodies to 12 MB. Image messages arrive as
// base64 data URIs inside JSON, so the cap must fit an encoded 5 MB image.
const MaxJSONBodySize int64 = 12 << 20

// BindJSON binds the JSON request body to dst, rejecting unknown fields,
// trailing content, and bodies over MaxJSONBodySize.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
