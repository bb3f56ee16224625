package cmd

import (
	"fmt"

	"github.com/prettymuchbryce/testwire/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, created, err := config.WriteExample(configPath)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Config already exists: %s\n", path)
			return nil
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
