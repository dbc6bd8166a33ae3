package cmd

import (
	"context"
	"fmt"
)

// IconCmd resolves an icon for a path and prints its data URL
type IconCmd struct {
	Path string `arg:"" help:"File or directory to resolve an icon for"`
	Size int    `help:"Icon size in pixels" default:"64"`
}

// Run executes the icon command
func (i *IconCmd) Run(cli *CLI) error {
	dataURL, err := cli.Container.Icons.Icon(context.Background(), i.Path, i.Size)
	if err != nil {
		return fmt.Errorf("failed to resolve icon: %w", err)
	}
	fmt.Println(dataURL)
	return nil
}
