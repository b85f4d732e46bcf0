package main

import (
	"fmt"

	"github.com/spf13/cobra"

	taskersync "github.com/aryan2621/tasker/internal/sync"
	"github.com/aryan2621/tasker/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the backend",
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Run a sync pass immediately",
	Long: `Run a sync pass and wait for it to finish. By default all kinds are
synced in order; --only restricts the pass to a single kind
(tasks, progress, achievements, streaks).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		only, _ := cmd.Flags().GetString("only")

		var ok bool
		switch taskersync.Kind(only) {
		case "":
			ok = a.engine.SyncAll(ctx)
		case taskersync.KindTasks:
			ok = a.engine.SyncTasks(ctx)
		case taskersync.KindProgress:
			ok = a.engine.SyncProgress(ctx)
		case taskersync.KindAchievements:
			ok = a.engine.SyncAchievements(ctx)
		case taskersync.KindStreaks:
			ok = a.engine.SyncStreaks(ctx)
		default:
			return fmt.Errorf("unknown kind %q", only)
		}

		for _, kind := range taskersync.Kinds {
			r, found := a.engine.Results()[kind]
			if !found {
				continue
			}
			if r.Success {
				fmt.Printf("%s %s\n", ui.Success("ok"), kind)
			} else {
				fmt.Printf("%s %s: %s\n", ui.Error("failed"), kind, r.Message)
			}
		}

		if !ok {
			state := a.engine.State()
			if state.Phase == taskersync.PhaseError && state.Message != "" {
				return fmt.Errorf("sync failed: %s", state.Message)
			}
			return fmt.Errorf("sync failed")
		}
		fmt.Println(ui.Success("Sync complete"))
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and pending upload counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.prober.IsConnected() {
			fmt.Printf("Network: %s\n", ui.Success("online"))
		} else {
			fmt.Printf("Network: %s\n", ui.Error("offline"))
		}

		if user := a.identity.CurrentUserID(); user != "" {
			fmt.Printf("Signed in as: %s\n", ui.Accent(user))
		} else {
			fmt.Printf("Signed in as: %s\n", ui.Muted("(nobody)"))
			return nil
		}

		counts := a.engine.SyncCounts(ctx)
		total := 0
		fmt.Println("Pending uploads:")
		for _, kind := range taskersync.Kinds {
			fmt.Printf("  %-13s %d\n", kind, counts[kind])
			total += counts[kind]
		}
		if total == 0 {
			fmt.Println(ui.Success("Everything is synced."))
		}
		return nil
	},
}

func init() {
	syncNowCmd.Flags().String("only", "", "sync a single kind (tasks, progress, achievements, streaks)")

	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
