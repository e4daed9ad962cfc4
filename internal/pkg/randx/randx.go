/*
Package randx generates collision-resistant object keys for uploaded media.
*/
package randx

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectKey builds a storage key for an uploaded object, namespaced by the
// owning user and dated so buckets stay browsable: <prefix>/<userID>/<date>-<uuid><ext>.
func ObjectKey(prefix, userID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102"), uuid.New().String(), ext)
	return path.Join(prefix, userID, name)
}
