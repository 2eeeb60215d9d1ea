package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/linkrank/internal/store"
	"github.com/papapumpkin/linkrank/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, the input file and the run database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{"input": "input", "db": "db_path"})
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printer := ui.New(cfg.Verbose)
		ok := true

		if fi, err := os.Stat(cfg.Input); err != nil {
			printer.Error(fmt.Sprintf("input: %v", err))
			ok = false
		} else if fi.IsDir() {
			printer.Error(fmt.Sprintf("input: %s is a directory", cfg.Input))
			ok = false
		} else {
			printer.Success(fmt.Sprintf("input %s (%d bytes)", cfg.Input, fi.Size()))
		}

		if cfg.DBPath != "" {
			st, err := store.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				printer.Error(fmt.Sprintf("database: %v", err))
				ok = false
			} else {
				st.Close()
				printer.Success("database " + cfg.DBPath)
			}
		}

		if !ok {
			return errors.New("validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringP("input", "i", "", "in-link file")
	validateCmd.Flags().String("db", "", "SQLite run database")
	rootCmd.AddCommand(validateCmd)
}
