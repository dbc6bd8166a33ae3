package domain

import (
	"strings"
	"time"
)

// FileEntry represents one filesystem object in a listing. Identity is
// the absolute path, unique within a listing.
//
// The pointer-typed derived fields are computed by a slower enrichment
// pass than the primary listing; nil means "not known", not "absent".
// Image dimensions and child counts are sticky: once observed for a
// path they survive a later listing that omits them (see the
// reconciler).
type FileEntry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`

	IsDir      bool `json:"isDir"`
	IsHidden   bool `json:"isHidden,omitempty"`
	IsSymlink  bool `json:"isSymlink,omitempty"`
	IsRepoRoot bool `json:"isRepoRoot,omitempty"`

	Extension string `json:"extension,omitempty"`

	// Derived fields
	ChildCount   *int   `json:"childCount,omitempty"`
	ImageWidth   *int   `json:"imageWidth,omitempty"`
	ImageHeight  *int   `json:"imageHeight,omitempty"`
	RemoteID     string `json:"remoteId,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
}

var imageExtensions = map[string]bool{
	"bmp":  true,
	"gif":  true,
	"heic": true,
	"heif": true,
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"svg":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
}

var videoExtensions = map[string]bool{
	"avi":  true,
	"m4v":  true,
	"mkv":  true,
	"mov":  true,
	"mp4":  true,
	"webm": true,
	"wmv":  true,
}

// IsImageExtension reports whether ext (without dot, any case) is a
// known image format.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// IsMediaExtension reports whether ext is a known image or video
// format. Used by the smart-default heuristic.
func IsMediaExtension(ext string) bool {
	ext = strings.ToLower(ext)
	return imageExtensions[ext] || videoExtensions[ext]
}

// ExtensionOf extracts the lower-cased extension from a file name,
// without the dot. Returns "" for names without one.
func ExtensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
