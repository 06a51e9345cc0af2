package ingest

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuihairu/faultline/internal/platform/objstore"
)

const defaultExt = ".jpg"

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// StoredName returns {unix-millis}-{random}{ext}. The extension of the upload is
// kept when it is a known image type so URLs stay recognisable to clients.
func StoredName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if !imageExts[ext] {
		ext = defaultExt
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.FormatUint(uint64(uuid.New().ID()), 10) + ext
}

// URLFor is the public URL recorded on a FaultImage row.
func URLFor(name string) string { return objstore.PublicPrefix + name }

// KeyFromURL maps a FaultImage url back to its storage key.
func KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, objstore.PublicPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(u, objstore.PublicPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}
