package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pipewalk/pipewalk"
	"github.com/pipewalk/pipewalk/internal/config"
	"github.com/pipewalk/pipewalk/pkg/log"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP host for interactive pipeline walkthroughs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict = strict
			}

			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
			}
			logger := log.New(level)

			app := pipewalk.New(
				pipewalk.WithAddr(cfg.Addr),
				pipewalk.WithLogr(log.Logr(logger)),
				pipewalk.WithStrict(cfg.Strict),
			)

			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGTERM)
				<-c
				logger.Info().Msg("shutting down")
				if err := app.Close(); err != nil {
					logger.Err(err).Msg("shutdown failed")
				}
			}()

			return app.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unusable pipeline documents instead of falling back")

	return cmd
}
