package localfs

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"vantage/internal/domain"
)

// maxInlineIconBytes bounds how large an image gets inlined as its own
// icon; anything bigger falls back to the generic placeholder.
const maxInlineIconBytes = 4 << 20

var imageMIMETypes = map[string]string{
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
}

// Icon implements ports.IconFetcher. Decodable images under the size
// cap are inlined as base64 data URLs; everything else gets a vector
// placeholder sized to the request.
func (p *Provider) Icon(ctx context.Context, path string, size int) (string, error) {
	norm := domain.NormalizePath(path)
	osPath := filepath.FromSlash(norm)

	info, err := os.Stat(osPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", norm, err)
	}

	if info.IsDir() {
		return folderIcon(size), nil
	}

	ext := domain.ExtensionOf(filepath.Base(osPath))
	mimeType, ok := imageMIMETypes[ext]
	if ok && info.Size() <= maxInlineIconBytes {
		data, err := os.ReadFile(osPath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", norm, err)
		}
		return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
	}

	return fileIcon(size), nil
}

func folderIcon(size int) string {
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 24 24"><path fill="#e8b931" d="M10 4H2v16h20V6H12z"/></svg>`,
		size, size)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func fileIcon(size int) string {
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 24 24"><path fill="#9aa0a6" d="M6 2h9l5 5v15H6z"/></svg>`,
		size, size)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
