package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erikmagkekse/zadara-clone-swap/config"
	"github.com/erikmagkekse/zadara-clone-swap/credentials"
	"github.com/erikmagkekse/zadara-clone-swap/workflow"
	"github.com/erikmagkekse/zadara-clone-swap/zadara"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newCommand().Run(ctx, os.Args)
	stop()

	if err != nil {
		log.WithLevel(zerolog.FatalLevel).Err(err).Msg("clone-zadara-volume failed")
		os.Exit(workflow.ExitCode(err))
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "clone-zadara-volume",
		Usage:   "clone a VPSA volume from a snapshot and move its NFS export to the clone",
		Version: version + " (" + commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "path to the YAML config file",
				Sources: cli.EnvVars("CLONE_SWAP_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "override the configured log level",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "hide-token-input",
				Usage: "do not echo access tokens typed at the prompt",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write prometheus metrics to this file on exit",
			},
			&cli.IntFlag{
				Name:  "clone-checks",
				Value: workflow.DefaultCloneChecks,
				Usage: "how many times to look for an asynchronously created clone",
			},
			&cli.DurationFlag{
				Name:  "clone-interval",
				Value: workflow.DefaultCloneInterval,
				Usage: "wait between clone lookups",
			},
			&cli.StringFlag{
				Name:  "journal",
				Usage: "append a record of every remote change to this file",
			},
		},
		Action: runClone,
		Commands: []*cli.Command{
			{
				Name:   "snapshots",
				Usage:  "list the snapshots of the configured volume and exit",
				Action: runSnapshots,
			},
		},
	}
}

// setup covers step 1: config and logging. The returned closer releases
// the log output.
func setup(cmd *cli.Command) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, &workflow.StepError{Step: workflow.StepLoadConfig, Err: err}
	}
	closer, err := config.SetupLogging(cfg.Logging, cmd.String("log-level"))
	if err != nil {
		return nil, nil, &workflow.StepError{Step: workflow.StepLoadConfig, Err: err}
	}
	log.Info().Str("version", version).Str("commit", commit).Msg("STEP 1. logging configured!")
	return cfg, closer, nil
}

func newWorkflow(cmd *cli.Command, cfg *config.Config, opts workflow.Options) (*workflow.Workflow, error) {
	tokens, err := credentials.FromEnv(nil)
	if err != nil {
		return nil, &workflow.StepError{Step: workflow.StepSetupClient, Err: fmt.Errorf("parse token env: %w", err)}
	}

	prompter := credentials.NewTerminalPrompter(cmd.Bool("hide-token-input"))
	prompter.Out = os.Stdout

	connector := &zadara.Connector{
		ConsoleURL: cfg.ZadaraCloudConsole.URL,
		Tokens:     credentials.NewResolver(tokens, prompter),
	}
	connect := func(ctx context.Context, exportPath string) (workflow.VolumeService, error) {
		client, err := connector.Connect(ctx, exportPath)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	opts.ExportPath = cfg.ZadaraVPSA.VolumeExportPath
	return workflow.New(opts, connect, workflow.NewConsoleUI(os.Stdout, prompter.Visible()), nil), nil
}

func writeMetrics(cmd *cli.Command) {
	if path := cmd.String("metrics-textfile"); path != "" {
		if err := workflow.WriteMetrics(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to write metrics")
		}
	}
}

func runClone(ctx context.Context, cmd *cli.Command) error {
	defer writeMetrics(cmd)

	cfg, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	w, err := newWorkflow(cmd, cfg, workflow.Options{
		CloneChecks:   cmd.Int("clone-checks"),
		CloneInterval: cmd.Duration("clone-interval"),
		JournalPath:   cmd.String("journal"),
	})
	if err != nil {
		return err
	}

	res, err := w.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("clone", res.Clone.Name).
		Str("snapshot", res.Snapshot.Name).
		Strs("servers", res.Swap.Servers).
		Int("policies", len(res.Policies)).
		Msg("clone swap finished")
	return nil
}

func runSnapshots(ctx context.Context, cmd *cli.Command) error {
	defer writeMetrics(cmd)

	cfg, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	w, err := newWorkflow(cmd, cfg, workflow.Options{})
	if err != nil {
		return err
	}
	_, err = w.ListOnly(ctx)
	return err
}
