package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/luispater/bokchoy/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	debug      bool
}

// loadConfig reads the configuration named by --config (or
// BOKCHOY_CONFIG) and applies --debug.
func (g *globalFlags) loadConfig() (*config.AppConfig, error) {
	path := g.configPath
	if path == "" {
		path = os.Getenv("BOKCHOY_CONFIG")
	}
	cfg, err := config.LoadConfig(path, nil)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return cfg, nil
}

// NewRootCommand builds the bokchoy command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "bokchoy",
		Short:         "Launch browsers from the environment and save their artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML config file (default $BOKCHOY_CONFIG)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		getCmdCapture(g),
		getCmdBrowsers(g),
		getCmdServe(g),
	)
	return root
}

// Execute runs the root command with os.Args until it finishes or the
// process receives SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(os.Stdout).ExecuteContext(ctx)
}
