package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	figmatokens "github.com/hellenic-development/figma-tokens"
	"github.com/hellenic-development/figma-tokens/pkg/config"
	"github.com/hellenic-development/figma-tokens/pkg/figma"
	"github.com/hellenic-development/figma-tokens/pkg/logging"
	"github.com/hellenic-development/figma-tokens/pkg/source"
)

const version = figma.Version

var (
	configFile string

	v      = config.NewViper()
	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "figma-tokens",
		Short:         "Export Figma variables as design tokens",
		Long:          "A tool to export Figma design variables as CSS, Swift, Android, Flutter, W3C design token and Tailwind files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}

			var err error
			if cfg, err = config.Load(v, configFile); err != nil {
				return err
			}
			if logger, err = logging.New(cfg.Log.Level, cfg.Log.JSON); err != nil {
				return err
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: ./figma-tokens.yaml)")
	flags.StringP("token", "t", "", "Figma Personal Access Token (or FIGMA_TOKEN)")
	flags.StringP("file", "u", "", "Figma file URL or file key")
	flags.StringP("snapshot", "s", "", "Read variables from a saved JSON or YAML snapshot instead of the API")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Bool("log-json", false, "Log as JSON")

	versionCmd := &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("figma-tokens version %s\n", version)
		},
	}

	rootCmd.AddCommand(
		exportCmd(),
		collectionsCmd(),
		watchCmd(),
		serveCmd(),
		stdioCmd(),
		mcpCmd(),
		versionCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		red := color.New(color.FgRed)
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			color.New(color.FgYellow).Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"figma.token":             "token",
	"figma.file":              "file",
	"figma.snapshot":          "snapshot",
	"log.level":               "log-level",
	"log.json":                "log-json",
	"export.collections":      "collections",
	"export.formats":          "formats",
	"export.types":            "types",
	"export.out_dir":          "out-dir",
	"export.max_output_bytes": "max-output-bytes",
	"export.watch_debounce":   "debounce",
	"server.addr":             "addr",
	"server.allowed_origins":  "allowed-origins",
}

// bindFlags binds config keys to the flags of the command being run, so that
// a flag given on the command line overrides the environment and the config
// file. Keys whose flag the command does not define are left alone.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind --%s", name)
		}
	}
	return nil
}

func banner() {
	cyan := color.New(color.FgCyan)
	cyan.Println("\n🎨 Figma Design Tokens")
	cyan.Println("======================")
	cyan.Println()
}

// openSource picks the snapshot file when one is configured and the Figma
// API otherwise. title names the source in listings.
func openSource() (src source.Source, title string, err error) {
	if cfg.Figma.Snapshot != "" {
		return source.NewSnapshot(cfg.Figma.Snapshot), filepath.Base(cfg.Figma.Snapshot), nil
	}

	client, err := newClient()
	if err != nil {
		return nil, "", err
	}
	f, err := source.NewFigma(client, cfg.Figma.File)
	if err != nil {
		return nil, "", err
	}
	return f, f.FileKey, nil
}

func newClient() (*figma.Client, error) {
	if cfg.Figma.File == "" {
		return nil, errors.WithHint(errors.New("no variable source configured"),
			"pass --file with --token, or --snapshot")
	}
	if cfg.Figma.Token == "" {
		return nil, errors.WithHint(errors.New("missing Figma access token"),
			"pass --token or set FIGMA_TOKEN")
	}

	return figma.NewClient(cfg.Figma.Token,
		figma.WithBaseURL(cfg.Figma.BaseURL),
		figma.WithRateLimit(cfg.Figma.RatePerSecond, cfg.Figma.Burst),
		figma.WithRetry(cfg.Figma.Retries, cfg.Figma.Backoff),
	), nil
}

func runOptions() figmatokens.Options {
	return figmatokens.Options{
		Logger:              logger,
		MaxOutputBytes:      cfg.Export.MaxOutputBytes,
		BatchSize:           cfg.Export.BatchSize,
		YieldEvery:          cfg.Export.YieldEvery,
		MemoryAdvisoryBytes: cfg.Export.MemoryAdvisoryBytes,
	}
}

func request() figmatokens.Request {
	return figmatokens.Request{
		CollectionIDs: cfg.Export.Collections,
		Formats:       cfg.Export.Formats,
		TokenTypes:    cfg.Export.Types,
	}
}
