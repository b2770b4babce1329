package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/alert"
	"github.com/vvatanabe/scm/auth"
	"github.com/vvatanabe/scm/internal/logging"
	"go.uber.org/zap"
)

// CommandFactory builds the command tree. Nil fields fall back to the real
// implementations.
type CommandFactory struct {
	CreateClient  func(ctx context.Context, flags *Flags) (scm.Client, error)
	CreateSession func(flags *Flags) (*auth.Session, error)
	CreateLogger  func(flags *Flags) *zap.Logger
}

var defaultCommandFactory = CommandFactory{
	CreateClient:  createClient,
	CreateSession: createSession,
	CreateLogger:  createLogger,
}

var root = defaultCommandFactory.CreateRootCommand(flgs)

func (f CommandFactory) CreateRootCommand(flgs *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scm",
		Short:         "scm tracks agricultural shipments, their checkpoints and notifications",
		Long:          `scm tracks agricultural shipments, their checkpoints and notifications.`,
		Version:       "",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			defer fmt.Fprintf(out, "... Interactive is ending\n\n\n")

			fmt.Fprintln(out, "===========================================================")
			fmt.Fprintln(out, ">> Welcome to SCM CLI! [INTERACTIVE MODE]")
			fmt.Fprintln(out, "===========================================================")
			fmt.Fprintln(out, "for help, enter one of the following: ? or h or help")
			fmt.Fprintln(out, "all commands in CLIs need to be typed in lowercase")
			fmt.Fprintln(out, "")

			ctx := commandContext(cmd)
			logger := f.createLogger(flgs)
			defer func() { _ = logger.Sync() }()

			client, err := f.createClient(ctx, flgs)
			if err != nil {
				return fmt.Errorf("... %w", err)
			}
			session, err := f.createSession(flgs)
			if err != nil {
				return fmt.Errorf("... %w", err)
			}
			logger.Debug("client created", zap.String("backend", flgs.Backend))

			fmt.Fprintf(out, "Backend: %s\n", flgs.Backend)
			if flgs.Backend == backendDynamoDB {
				fmt.Fprintf(out, "ShipmentTableName: %s\n", flgs.ShipmentTableName)
				fmt.Fprintf(out, "NotificationTableName: %s\n", flgs.NotificationTableName)
				fmt.Fprintf(out, "EndpointURL: %s\n", flgs.EndpointURL)
			}
			if u, err := session.Current(); err == nil {
				fmt.Fprintf(out, "Logged in as: %s (%s)\n", u.Name, u.Role)
			}
			fmt.Fprintln(out, "")

			c := Interactive{
				Client:  client,
				Session: session,
				Alerts:  alert.NewFeed(),
				Out:     out,
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				if c.Shipment != nil {
					fmt.Fprintf(out, "\nID <%s> >> Enter command: ", c.Shipment.ID)
				} else {
					fmt.Fprint(out, "\n>> Enter command: ")
				}

				if !scanner.Scan() {
					break
				}

				command, params := parseInput(scanner.Text())
				switch command {
				case "":
					continue
				case "quit", "q":
					return nil
				default:
					if err := c.Run(ctx, command, params); err != nil {
						logger.Debug("command failed", zap.String("command", command), zap.Error(err))
						printError(out, err)
					}
				}
			}
			return scanner.Err()
		},
	}
	setDefaultFlags(rootCmd, flgs)
	rootCmd.AddCommand(
		f.createLSCommand(flgs),
		f.createGetCommand(flgs),
		f.createCreateCommand(flgs),
		f.createUpdateCommand(flgs),
		f.createCheckpointCommand(flgs),
		f.createNotificationsCommand(flgs),
		f.createReadCommand(flgs),
		f.createMetricsCommand(flgs),
		f.createWatchCommand(flgs),
		f.createLoginCommand(flgs),
		f.createLogoutCommand(flgs),
		f.createWhoamiCommand(flgs),
	)
	return rootCmd
}

func (f CommandFactory) createClient(ctx context.Context, flags *Flags) (scm.Client, error) {
	if f.CreateClient != nil {
		return f.CreateClient(ctx, flags)
	}
	return createClient(ctx, flags)
}

func (f CommandFactory) createSession(flags *Flags) (*auth.Session, error) {
	if f.CreateSession != nil {
		return f.CreateSession(flags)
	}
	return createSession(flags)
}

func (f CommandFactory) createLogger(flags *Flags) *zap.Logger {
	if f.CreateLogger != nil {
		return f.CreateLogger(flags)
	}
	return createLogger(flags)
}

const memoryBackendNote = `With the default memory backend every invocation starts from a fresh seeded store
that is discarded on exit. Use --backend dynamodb, or the interactive mode, to keep changes.`

func (f CommandFactory) warnMemoryBackend(cmd *cobra.Command, flags *Flags) {
	logger := f.createLogger(flags)
	defer func() { _ = logger.Sync() }()
	warnMemoryBackend(logger, cmd, flags)
}

func warnMemoryBackend(logger *zap.Logger, cmd *cobra.Command, flags *Flags) {
	if flags.Backend != "" && flags.Backend != backendMemory {
		return
	}
	logger.Warn("memory backend is discarded when the command exits",
		zap.String("command", cmd.Name()))
}

func createClient(ctx context.Context, flags *Flags) (scm.Client, error) {
	switch flags.Backend {
	case "", backendMemory:
		return scm.NewMemoryClient(), nil
	case backendDynamoDB:
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		client, err := scm.NewFromConfig(cfg,
			scm.WithShipmentTableName(flags.ShipmentTableName),
			scm.WithNotificationTableName(flags.NotificationTableName),
			scm.WithAWSBaseEndpoint(flags.EndpointURL))
		if err != nil {
			return nil, fmt.Errorf("AWS session could not be established!: %w", err)
		}
		return client, nil
	default:
		return nil, scm.InvalidValueError{Field: "backend", Value: flags.Backend}
	}
}

func createSession(flags *Flags) (*auth.Session, error) {
	path := flags.SessionFile
	if path == "" {
		var err error
		if path, err = auth.DefaultSessionPath(); err != nil {
			return nil, fmt.Errorf("failed to locate session file: %w", err)
		}
	}
	return auth.NewSession(auth.FileStorage{Path: path}), nil
}

func createLogger(flags *Flags) *zap.Logger {
	return logging.New(&logging.Config{
		Level:  flags.LogLevel,
		Format: flags.LogFormat,
		Output: os.Stderr,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func Execute() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
