package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/prettymuchbryce/testwire/internal/location"
	"github.com/spf13/cobra"
)

var (
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle = lipgloss.NewStyle().Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the location cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every cached declaring type and its file",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := location.NewFileStore(fs.NewReal(), cfg.Cache.Path)
		entries, err := store.Entries()
		if err != nil {
			return err
		}

		fmt.Println(dimStyle.Render(store.Path()))
		if len(entries) == 0 {
			fmt.Println(dimStyle.Render("  empty"))
			return nil
		}

		width := 0
		for _, e := range entries {
			if len(e.Type) > width {
				width = len(e.Type)
			}
		}

		seen := make(map[string]bool)
		for _, e := range entries {
			line := fmt.Sprintf("  %s  %s", boldStyle.Render(fmt.Sprintf("%-*s", width, e.Type)), e.Path)
			if seen[e.Type] {
				line += " " + warnStyle.Render("(ignored, duplicate)")
			}
			seen[e.Type] = true
			fmt.Println(line)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the location cache file",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := location.NewFileStore(fs.NewReal(), cfg.Cache.Path)
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %s\n", store.Path())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
