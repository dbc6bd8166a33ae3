package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"vantage/internal/domain"
	"vantage/internal/services"
)

// BrowseCmd lists a directory through the view store
type BrowseCmd struct {
	Path string `arg:"" optional:"" help:"Directory to list (defaults to the last browsed directory, then the working directory)"`

	Hidden bool          `help:"Show hidden entries regardless of preferences"`
	Long   bool          `short:"l" help:"Long listing with sizes and modification times"`
	Once   bool          `help:"Read the directory in one shot instead of streaming"`
	Wait   time.Duration `help:"How long to wait for the stream to complete" default:"10s"`
}

// Run executes the browse command
func (b *BrowseCmd) Run(cli *CLI) error {
	container := cli.Container
	ctx := context.Background()
	if err := container.StartPreferenceSync(ctx); err != nil {
		return fmt.Errorf("failed to watch preferences: %w", err)
	}

	path := b.Path
	if path == "" {
		path = container.Resolver.LastDir(ctx)
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		path = cwd
	}

	if b.Once {
		if err := container.View.LoadOnce(ctx, path); err != nil {
			return err
		}
	} else {
		if err := container.View.NavigateTo(ctx, path); err != nil {
			return err
		}
		if err := waitForStream(container.View, b.Wait); err != nil {
			return err
		}
	}

	snapshot := container.View.GetSnapshot()
	container.Resolver.PersistLastDir(ctx, snapshot.Path)

	prefs := snapshot.Preferences
	if b.Hidden {
		prefs.ShowHidden = true
	}

	entries := applyPreferences(snapshot.Files, prefs)
	render(snapshot.Path, entries, b.Long)
	return nil
}

// waitForStream polls until the active session finishes or the deadline
// passes.
func waitForStream(view *services.ViewStore, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		snapshot := view.GetSnapshot()
		if snapshot.StreamingComplete {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("listing did not complete within %s", wait)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// applyPreferences filters and orders entries the way the view would
// present them.
func applyPreferences(entries []domain.FileEntry, prefs domain.ViewPreferences) []domain.FileEntry {
	result := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsHidden && !prefs.ShowHidden {
			continue
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if prefs.FoldersFirst && a.IsDir != b.IsDir {
			return a.IsDir
		}
		less := compareEntries(a, b, prefs.SortBy)
		if prefs.SortOrder == domain.SortDesc {
			return !less
		}
		return less
	})
	return result
}

func compareEntries(a, b domain.FileEntry, by domain.SortBy) bool {
	switch by {
	case domain.SortBySize:
		if a.Size != b.Size {
			return a.Size < b.Size
		}
	case domain.SortByModified:
		if !a.Modified.Equal(b.Modified) {
			return a.Modified.Before(b.Modified)
		}
	case domain.SortByType:
		if a.Extension != b.Extension {
			return a.Extension < b.Extension
		}
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func render(path string, entries []domain.FileEntry, long bool) {
	fmt.Println(path)
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		if !long {
			fmt.Printf("  %s\n", name)
			continue
		}

		size := humanize.IBytes(uint64(e.Size))
		if e.IsDir {
			size = "-"
			if e.ChildCount != nil {
				size = fmt.Sprintf("%d items", *e.ChildCount)
			}
		}
		fmt.Printf("  %-40s %10s  %s\n", name, size, humanize.Time(e.Modified))
	}

	label := "items"
	if len(entries) == 1 {
		label = "item"
	}
	fmt.Printf("\n%d %s\n", len(entries), label)
}
