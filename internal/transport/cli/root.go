// Package cli is the ragdex command line: serve, ingest, query and collection management.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/app"
	"github.com/kailas-cloud/ragdex/internal/config"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
)

// Options are the global flags shared by every command.
type Options struct {
	Env        string
	ConfigPath string
	LogLevel   string
}

// Factory builds the application for one command invocation.
type Factory func(ctx context.Context, opts Options, logger *zap.Logger) (*app.App, error)

// DefaultFactory loads the config file and wires OpenAI-compatible providers.
func DefaultFactory(ctx context.Context, opts Options, logger *zap.Logger) (*app.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

func loadConfig(opts Options) (config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFile(opts.ConfigPath)
	}
	return config.Load(opts.Env)
}

type session struct {
	opts    Options
	factory Factory
	logger  *zap.Logger
}

// open builds the app; the caller must Close it.
func (rt *session) open(ctx context.Context) (*app.App, error) {
	a, err := rt.factory(ctx, rt.opts, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}

// NewRootCommand creates the ragdex command tree.
func NewRootCommand(factory Factory) *cobra.Command {
	rt := &session{factory: factory}

	root := &cobra.Command{
		Use:   "ragdex",
		Short: "Retrieval-augmented answers over your documents",
		Long: `ragdex ingests PDF, DOCX, text and markdown files into a vector store
and answers questions with citations to the pages the answer came from.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cmd.Name() == "serve" {
				rt.logger, err = logpkg.NewLogger(rt.opts.Env, rt.opts.LogLevel)
			} else {
				rt.logger, err = logpkg.NewCLILogger(rt.opts.LogLevel)
			}
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&rt.opts.Env, "env", config.GetEnv(), "environment name, selects config/<env>.yaml")
	root.PersistentFlags().StringVarP(&rt.opts.ConfigPath, "config", "c", "", "explicit config file path")
	root.PersistentFlags().StringVar(&rt.opts.LogLevel, "log-level", "", "log level override: debug, info, warn, error")

	root.AddCommand(
		newServeCommand(rt),
		newIngestCommand(rt),
		newQueryCommand(rt),
		newCollectionsCommand(rt),
		newVersionCommand(),
	)
	return root
}
