package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aryan2621/tasker/internal/config"
	"github.com/aryan2621/tasker/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Sign in as a user",
	Long: `Record the user id in the token file. Locally cached data for other
users stays in the database but is hidden from reads and excluded from
sync until that user signs in again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfg.TokenFile), 0o755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
		if err := os.WriteFile(cfg.TokenFile, []byte(args[0]+"\n"), 0o600); err != nil {
			return fmt.Errorf("failed to write token file: %w", err)
		}

		fmt.Printf("%s %s\n", ui.Success("Signed in as"), ui.Accent(args[0]))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if err := os.Remove(cfg.TokenFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove token file: %w", err)
		}
		fmt.Println(ui.Muted("Signed out."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
