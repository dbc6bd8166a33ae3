package localfs

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// Registered formats for image.DecodeConfig dimension probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"vantage/internal/domain"
)

// probeSizeLimit bounds how large a file the dimension probe opens.
const probeSizeLimit = 64 << 20

// readEntries lists a directory as domain entries, sorted by name.
// Derived fields are filled inline: child counts for directories,
// pixel dimensions for decodable images, repo-root detection.
func readEntries(norm string) ([]domain.FileEntry, error) {
	dirEntries, err := os.ReadDir(filepath.FromSlash(norm))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", norm, err)
	}

	entries := make([]domain.FileEntry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		entry, err := buildEntry(norm, dirEntry)
		if err != nil {
			// Unstatable entries (racing deletes, broken mounts) are skipped.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func buildEntry(parent string, dirEntry fs.DirEntry) (domain.FileEntry, error) {
	name := dirEntry.Name()
	fullPath := parent + "/" + name
	if domain.IsRoot(parent) {
		fullPath = parent + name
	}

	info, err := dirEntry.Info()
	if err != nil {
		return domain.FileEntry{}, err
	}

	entry := domain.FileEntry{
		Path:      domain.NormalizePath(fullPath),
		Name:      name,
		Size:      info.Size(),
		Modified:  info.ModTime(),
		IsDir:     dirEntry.IsDir(),
		IsHidden:  strings.HasPrefix(name, "."),
		IsSymlink: info.Mode()&fs.ModeSymlink != 0,
	}

	osPath := filepath.FromSlash(entry.Path)
	if entry.IsDir {
		entry.IsRepoRoot = isRepoRoot(osPath)
		if count, ok := childCount(osPath); ok {
			entry.ChildCount = &count
		}
	} else {
		entry.Extension = domain.ExtensionOf(name)
		if domain.IsImageExtension(entry.Extension) && info.Size() <= probeSizeLimit {
			if width, height, ok := probeImageSize(osPath); ok {
				entry.ImageWidth = &width
				entry.ImageHeight = &height
			}
		}
	}

	return entry, nil
}

func childCount(osPath string) (int, bool) {
	children, err := os.ReadDir(osPath)
	if err != nil {
		return 0, false
	}
	return len(children), true
}

func isRepoRoot(osPath string) bool {
	_, err := os.Stat(filepath.Join(osPath, ".git"))
	return err == nil
}

// probeImageSize reads just enough of the file to learn its pixel
// dimensions.
func probeImageSize(osPath string) (int, int, bool) {
	file, err := os.Open(osPath)
	if err != nil {
		return 0, 0, false
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, false
	}
	return config.Width, config.Height, true
}
