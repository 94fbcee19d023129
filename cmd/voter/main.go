package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/prompt"
	"github.com/vncsmyrnk/blindpoll/internal/app"
	"github.com/vncsmyrnk/blindpoll/internal/config"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
	"github.com/vncsmyrnk/blindpoll/pkg/logger"
)

const programName = "voter"

var globalFlags = struct {
	store     string
	logLevel  string
	assumeYes bool
}{}

type cliState struct {
	app    *app.App
	alerts *prompt.Queue
}

type stateKey struct{}

func stateFrom(ctx context.Context) *cliState {
	rt, _ := ctx.Value(stateKey{}).(*cliState)
	return rt
}

func appFrom(ctx context.Context) *app.App {
	return stateFrom(ctx).app
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Vote anonymously on a blind-signature ballot authority",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.store, "store", "", "ballot store: memory, badger or postgres")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.assumeYes, "yes", "y", false, "do not ask for confirmation before voting")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalFlags.store != "" {
			cfg.StoreDriver = globalFlags.store
		}
		if globalFlags.logLevel != "" {
			cfg.LogLevel = globalFlags.logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		l, err := logger.New(programName, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		// serve confirms every vote and queues alerts for /api/session.
		rt := &cliState{}
		var prompter ports.Prompter = prompt.NewTerminal(os.Stdin, os.Stdout, globalFlags.assumeYes)
		if cmd.Name() == "serve" {
			rt.alerts = prompt.NewQueue(true)
			prompter = rt.alerts
		}
		if rt.app, err = app.New(cmd.Context(), cfg, prompter, l); err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), stateKey{}, rt))
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if rt := stateFrom(cmd.Context()); rt != nil {
			return rt.app.Close()
		}
		return nil
	}

	rootCmd.AddCommand(
		questionsCommand(),
		selectCommand(),
		rankCommand(),
		signCommand(),
		voteCommand(),
		verifyCommand(),
		resultsCommand(),
		serveCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
