package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"

	"vantage/internal/domain"
	"vantage/internal/logging"
)

const manifestName = "manifest.json"

// trashManifest records what one trash operation moved and where it
// came from, keyed by the undo token.
type trashManifest struct {
	Token     string      `json:"token"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []trashItem `json:"items"`
}

type trashItem struct {
	OriginalPath string `json:"originalPath"`
	TrashedName  string `json:"trashedName"`
}

func defaultTrashRoot() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "vantage", "trash"), nil
}

func (p *Provider) resolveTrashRoot() (string, error) {
	if p.trashRoot != "" {
		return p.trashRoot, nil
	}
	return defaultTrashRoot()
}

// Trash implements ports.TrashOperator.Trash. Each call gets its own
// token directory under the trash root with a manifest describing the
// original locations. When no trash location is usable the caller is
// told to fall back to a confirmed permanent delete.
func (p *Provider) Trash(ctx context.Context, paths []string) (*domain.TrashResult, error) {
	root, err := p.resolveTrashRoot()
	if err != nil {
		return &domain.TrashResult{FallbackToPermanent: true}, nil
	}

	token := uuid.New().String()
	tokenDir := filepath.Join(root, token)
	if err := os.MkdirAll(tokenDir, 0755); err != nil {
		logging.Logger.Warn("trash location unusable", "root", root, "error", err)
		return &domain.TrashResult{FallbackToPermanent: true}, nil
	}

	manifest := trashManifest{
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}

	var trashed []string
	var bytes int64
	for i, path := range paths {
		norm := domain.NormalizePath(path)
		osPath := filepath.FromSlash(norm)

		// Index prefix keeps same-named files from different directories apart.
		trashedName := fmt.Sprintf("%d-%s", i, filepath.Base(osPath))
		if err := os.Rename(osPath, filepath.Join(tokenDir, trashedName)); err != nil {
			logging.Logger.Warn("failed to trash path", "path", norm, "error", err)
			continue
		}

		bytes += treeSize(filepath.Join(tokenDir, trashedName))
		manifest.Items = append(manifest.Items, trashItem{
			OriginalPath: norm,
			TrashedName:  trashedName,
		})
		trashed = append(trashed, norm)
	}

	if len(manifest.Items) == 0 {
		os.RemoveAll(tokenDir)
		return &domain.TrashResult{}, nil
	}

	if err := writeManifest(tokenDir, &manifest); err != nil {
		return nil, err
	}

	logging.Logger.Info("trashed paths", "count", len(trashed), "bytes", bytes, "token", token)
	return &domain.TrashResult{
		Trashed:   trashed,
		UndoToken: token,
	}, nil
}

// DeletePermanently implements ports.TrashOperator.DeletePermanently.
// Directories are removed recursively. Paths that fail are omitted from
// the result but do not abort the rest.
func (p *Provider) DeletePermanently(ctx context.Context, paths []string) (*domain.DeleteResult, error) {
	var deleted []string
	for _, path := range paths {
		norm := domain.NormalizePath(path)
		osPath := filepath.FromSlash(norm)

		info, err := os.Lstat(osPath)
		if err != nil {
			logging.Logger.Warn("failed to stat path for delete", "path", norm, "error", err)
			continue
		}

		if info.IsDir() {
			err = os.RemoveAll(osPath)
		} else {
			err = os.Remove(osPath)
		}
		if err != nil {
			logging.Logger.Warn("failed to delete path", "path", norm, "error", err)
			continue
		}
		deleted = append(deleted, norm)
	}
	return &domain.DeleteResult{Deleted: deleted}, nil
}

// UndoTrash implements ports.TrashOperator.UndoTrash. Restored paths
// may differ from the originals when the original location is occupied
// again; collisions get a numbered suffix.
func (p *Provider) UndoTrash(ctx context.Context, token string) (*domain.RestoreResult, error) {
	root, err := p.resolveTrashRoot()
	if err != nil {
		return nil, err
	}

	tokenDir := filepath.Join(root, token)
	manifest, err := readManifest(tokenDir)
	if err != nil {
		return nil, err
	}

	var restored []string
	var remaining []trashItem
	for _, item := range manifest.Items {
		target := restoreTarget(item.OriginalPath)
		if err := os.MkdirAll(filepath.Dir(filepath.FromSlash(target)), 0755); err != nil {
			logging.Logger.Warn("failed to recreate parent for restore", "path", target, "error", err)
			remaining = append(remaining, item)
			continue
		}
		if err := os.Rename(filepath.Join(tokenDir, item.TrashedName), filepath.FromSlash(target)); err != nil {
			logging.Logger.Warn("failed to restore path", "path", target, "error", err)
			remaining = append(remaining, item)
			continue
		}
		restored = append(restored, target)
	}

	if len(remaining) > 0 {
		// The token stays valid for the items still in the trash, so the
		// caller can retry. Restored paths ride along with the error.
		manifest.Items = remaining
		if err := writeManifest(tokenDir, manifest); err != nil {
			logging.Logger.Warn("failed to rewrite trash manifest", "token", token, "error", err)
		}
		return &domain.RestoreResult{Restored: restored},
			fmt.Errorf("restored %d of %d items from trash", len(restored), len(restored)+len(remaining))
	}
	os.RemoveAll(tokenDir)
	return &domain.RestoreResult{Restored: restored}, nil
}

// restoreTarget picks where a trashed item goes back. The original
// path wins unless something now occupies it.
func restoreTarget(original string) string {
	osPath := filepath.FromSlash(original)
	if _, err := os.Lstat(osPath); err != nil {
		return original
	}

	ext := filepath.Ext(original)
	base := original[:len(original)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (restored %d)%s", base, i, ext)
		if _, err := os.Lstat(filepath.FromSlash(candidate)); err != nil {
			return candidate
		}
	}
}

func writeManifest(tokenDir string, manifest *trashManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trash manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tokenDir, manifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write trash manifest: %w", err)
	}
	return nil
}

func readManifest(tokenDir string) (*trashManifest, error) {
	data, err := os.ReadFile(filepath.Join(tokenDir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrUnknownToken
		}
		return nil, fmt.Errorf("failed to read trash manifest: %w", err)
	}

	var manifest trashManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trash manifest: %w", err)
	}
	return &manifest, nil
}

// treeSize totals the bytes under a path, following the concurrent
// walk used for copy accounting.
func treeSize(osPath string) int64 {
	info, err := os.Lstat(osPath)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total atomic.Int64
	conf := &fastwalk.Config{Follow: false}
	_ = fastwalk.Walk(conf, osPath, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if fileInfo, err := fastwalk.StatDirEntry(fullPath, d); err == nil {
			total.Add(fileInfo.Size())
		}
		return nil
	})
	return total.Load()
}
