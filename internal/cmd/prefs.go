package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"vantage/internal/domain"
)

// PrefsCmd inspects and changes view preferences
type PrefsCmd struct {
	Get PrefsGetCmd `cmd:"get" help:"Print effective preferences" default:"1"`
	Set PrefsSetCmd `cmd:"set" help:"Update preferences"`
}

// PrefsGetCmd prints the effective preferences for a directory
type PrefsGetCmd struct {
	Dir string `help:"Directory to resolve (omit for the global defaults)"`
}

// Run executes the get command
func (g *PrefsGetCmd) Run(cli *CLI) error {
	prefs := cli.Container.Resolver.Effective(g.Dir)
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// PrefsSetCmd updates global or per-directory preferences
type PrefsSetCmd struct {
	Dir string `help:"Directory to scope the change to (omit for global)"`

	ViewMode     *string `help:"View mode (list or grid)" placeholder:"MODE"`
	SortBy       *string `help:"Sort key (name, size, modified, or type)" placeholder:"KEY"`
	SortOrder    *string `help:"Sort direction (asc or desc)" placeholder:"ORDER"`
	ShowHidden   *bool   `help:"Show hidden entries" negatable:""`
	FoldersFirst *bool   `help:"Group folders before files" negatable:""`
	GridSize     *int    `help:"Grid thumbnail size in pixels"`
}

// Run executes the set command
func (s *PrefsSetCmd) Run(cli *CLI) error {
	partial, err := s.partial()
	if err != nil {
		return err
	}
	if partial.IsEmpty() {
		return fmt.Errorf("nothing to set; pass at least one preference flag")
	}

	ctx := context.Background()
	if s.Dir != "" {
		cli.Container.Resolver.Update(ctx, s.Dir, partial)
		fmt.Printf("Preferences updated for %s\n", domain.NormalizePath(s.Dir))
	} else {
		cli.Container.Resolver.UpdateGlobal(ctx, partial)
		fmt.Println("Global preferences updated")
	}
	return nil
}

func (s *PrefsSetCmd) partial() (domain.PartialPreferences, error) {
	var partial domain.PartialPreferences

	if s.ViewMode != nil {
		mode := domain.ViewMode(*s.ViewMode)
		if mode != domain.ViewList && mode != domain.ViewGrid {
			return partial, fmt.Errorf("invalid view mode %q (expected list or grid)", *s.ViewMode)
		}
		partial.ViewMode = &mode
	}
	if s.SortBy != nil {
		by := domain.SortBy(*s.SortBy)
		switch by {
		case domain.SortByName, domain.SortBySize, domain.SortByModified, domain.SortByType:
		default:
			return partial, fmt.Errorf("invalid sort key %q (expected name, size, modified, or type)", *s.SortBy)
		}
		partial.SortBy = &by
	}
	if s.SortOrder != nil {
		order := domain.SortOrder(*s.SortOrder)
		if order != domain.SortAsc && order != domain.SortDesc {
			return partial, fmt.Errorf("invalid sort direction %q (expected asc or desc)", *s.SortOrder)
		}
		partial.SortOrder = &order
	}
	if s.GridSize != nil && *s.GridSize <= 0 {
		return partial, fmt.Errorf("grid size must be positive")
	}

	partial.ShowHidden = s.ShowHidden
	partial.FoldersFirst = s.FoldersFirst
	partial.GridSize = s.GridSize
	return partial, nil
}
