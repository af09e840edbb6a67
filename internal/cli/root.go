// Package cli implements the again command line tool.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vietddude/stylelog"

	"andy.dev/again/config"
)

const (
	// Version of the again tool.
	Version = "0.4.0"

	// Wrap is the number of characters to wrap flag help text at.
	Wrap int = 50
)

// Execute runs the root command, exiting with status 1 on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "again",
		Short: "inspect and exercise retry chains",
		Long: fmt.Sprintf(`again (v%s)

Validate retry chain definitions, print their delay schedules and run
scripted failures through them.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, v)
		},
	}

	root.PersistentFlags().String("config", "chain.yaml", WrapString("Path to the chain definition"))
	root.PersistentFlags().Bool("debug", false, WrapString("Enable debug logging"))

	root.AddCommand(
		newValidateCmd(v),
		newPlanCmd(v),
		newSimulateCmd(v),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of again",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "again v%s\n", Version)
			},
		},
	)
	return root
}

// setup loads env files, binds flags to v and initializes logging.
func setup(cmd *cobra.Command, v *viper.Viper) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix("again")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	level := slog.LevelInfo
	if v.GetBool("debug") {
		level = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
	return nil
}

// loadChain loads the configured chain definition.
func loadChain(v *viper.Viper) (*config.File, error) {
	path := v.GetString("config")
	f, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded chain definition", "config", path, "policies", len(f.Policies))
	return f, nil
}

// WrapString wraps a string at Wrap characters.
func WrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0

	for _, word := range strings.Fields(text) {
		if width > 0 && width+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
