// Command tasker is an offline-first task reminder CLI. All reads and
// writes hit the local SQLite database; a background daemon (or a manual
// "sync now") reconciles with the remote backend when a network is
// available.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryan2621/tasker/internal/config"
	"github.com/aryan2621/tasker/internal/connectivity"
	"github.com/aryan2621/tasker/internal/identity"
	"github.com/aryan2621/tasker/internal/remote"
	"github.com/aryan2621/tasker/internal/repo"
	"github.com/aryan2621/tasker/internal/store"
	"github.com/aryan2621/tasker/internal/streak"
	taskersync "github.com/aryan2621/tasker/internal/sync"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tasker",
	Short: "Offline-first task reminders with background sync",
	Long: `Tasker keeps your tasks, streaks, and achievements in a local SQLite
database and syncs them to the backend whenever a connection is available.
Every command works offline; changes queue up and upload on the next sync.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: user config dir)")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

// app bundles everything a command needs. Commands that only touch the
// local store still build the full set; the remote client is lazy enough
// that this costs nothing until a sync runs.
type app struct {
	cfg      *config.Config
	store    *store.Store
	identity *identity.Cache
	client   remote.Client
	streaks  *streak.Service
	tasks    *repo.TaskRepository
	progress *repo.ProgressRepository
	awards   *repo.AchievementRepository
	streak   *repo.StreakRepository
	prober   *connectivity.Prober
	engine   *taskersync.Engine
}

// newApp loads config, opens the database, and wires the repositories and
// engine. logDest overrides where component logs go; nil means stderr.
func newApp(ctx context.Context, logDest io.Writer) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logDest == nil {
		logDest = os.Stderr
	}
	mklog := func(prefix string) *log.Logger {
		return log.New(logDest, prefix, log.LstdFlags)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.InitSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ident := identity.NewCacheFromTokenFile(cfg.TokenFile)

	client := remote.NewHTTPClient(remote.HTTPConfig{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout,
		Token:   cfg.Remote.Token,
		Logger:  mklog("[remote] "),
	}, ident)

	streaks := streak.NewService(st, client, mklog("[streak] "))

	tasks := repo.NewTaskRepository(st, client, ident, streaks, mklog("[tasks] "))
	progress := repo.NewProgressRepository(st, client, ident, mklog("[progress] "))
	awards := repo.NewAchievementRepository(st, client, ident, mklog("[achievements] "))
	streakRepo := repo.NewStreakRepository(st, client, ident, mklog("[streaks] "))

	prober := connectivity.NewProber(&connectivity.ProberConfig{
		URL:      cfg.Probe.URL,
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
		Logger:   mklog("[connectivity] "),
	})
	prober.Start(ctx)

	engine := taskersync.New(tasks, progress, awards, streakRepo, prober, ident, mklog("[sync] "))

	return &app{
		cfg:      cfg,
		store:    st,
		identity: ident,
		client:   client,
		streaks:  streaks,
		tasks:    tasks,
		progress: progress,
		awards:   awards,
		streak:   streakRepo,
		prober:   prober,
		engine:   engine,
	}, nil
}

// Close tears the app down in reverse dependency order.
func (a *app) Close() {
	a.engine.Close()
	a.prober.Close()
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing database: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
