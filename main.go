package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var cfg Config
	var cfgErr error

	root := &cobra.Command{
		Use:           appName,
		Short:         "Status line for Claude Code with session and weekly quota usage",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, cfgErr = loadRuntimeConfig(cfgPath)
		},
		// The host runs the binary without arguments and treats any failure
		// as "no status line", so this path never returns an error.
		Run: func(cmd *cobra.Command, args []string) {
			closer := setupLogging(&cfg)
			defer closer.Close()
			if cfgErr != nil {
				log.WithError(cfgErr).Warn("config: using defaults")
			}

			newStatusline(&cfg, cmd.OutOrStdout()).run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", configPath(), "path to config file")

	root.AddCommand(
		newWatchCmd(&cfg),
		newCacheCmd(&cfg),
	)
	return root
}

// loadRuntimeConfig loads the optional .env file and the config. A config
// error still comes with usable defaults.
func loadRuntimeConfig(path string) (Config, error) {
	if dir := configDir(); dir != "" {
		// Variables already in the environment win.
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
	return LoadConfig(path)
}

func newStatusline(cfg *Config, out io.Writer) *statusline {
	return &statusline{
		resolver: NewResolver(
			newFileCache(cfg.Cache),
			newKeychainTokenSource(cfg.Credentials),
			newAPIFetcher(cfg.API),
		),
		renderer: newLineRenderer(out, cfg.Display),
	}
}

func newWatchCmd(cfg *Config) *cobra.Command {
	var input string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Preview the status line, redrawing it like the host does",
		RunE: func(cmd *cobra.Command, args []string) error {
			closer := setupLogging(cfg)
			defer closer.Close()

			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}

			sl := newStatusline(cfg, os.Stdout)
			p := tea.NewProgram(newWatchModel(sl, input, interval, cfg.Display), tea.WithAltScreen())

			if input != "" {
				stop, err := watchSnapshot(input, p)
				if err != nil {
					return err
				}
				defer stop()
			}

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "snapshot JSON file (default: built-in sample)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "redraw interval")
	return cmd
}

func newCacheCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show cached quota readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := newFileCache(cfg.Cache)
			fmt.Fprintf(out, "Cache dir: %s\n", cfg.Cache.Dir)
			for _, st := range c.Inspect() {
				fmt.Fprintln(out, formatCacheStatus(st, cfg.Cache.TTL(st.Key)))
			}
			return nil
		},
	}
}

func formatCacheStatus(st CacheStatus, ttl time.Duration) string {
	switch {
	case !st.Exists:
		return fmt.Sprintf("%-8s missing", st.Key)
	case !st.Valid:
		return fmt.Sprintf("%-8s stale   (age %s, ttl %s): %v", st.Key, st.Age.Round(time.Second), ttl, st.Err)
	}
	line := fmt.Sprintf("%-8s %3d%%    (age %s, ttl %s)", st.Key, st.Reading.Percentage, st.Age.Round(time.Second), ttl)
	if st.Reading.ResetsAt != "" {
		line += " resets " + st.Reading.ResetsAt
	}
	return line
}
