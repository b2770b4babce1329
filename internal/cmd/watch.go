package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/relay"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (f CommandFactory) createWatchCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "watch",
		Short: "Relay unread notifications until interrupted",
		Long: `Relay unread notifications until interrupted.
Notifications go to Kafka and/or RabbitMQ when configured, otherwise they are printed.
Each one is marked read after it has been relayed.

` + memoryBackendNote,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := f.createLogger(flgs)
			defer func() { _ = logger.Sync() }()
			warnMemoryBackend(logger, cmd, flgs)

			client, err := f.createClient(ctx, flgs)
			if err != nil {
				return err
			}
			processor, closers, err := buildProcessor(cmd.OutOrStdout(), flgs, logger)
			defer func() {
				for _, closer := range closers {
					if err := closer.Close(); err != nil {
						logger.Warn("failed to close relay", zap.Error(err))
					}
				}
			}()
			if err != nil {
				return err
			}

			consumer := scm.NewConsumer(client, processor,
				scm.WithPollingInterval(flgs.PollingInterval),
				scm.WithConcurrency(flgs.Concurrency),
				scm.WithMaximumAttempts(flgs.MaximumAttempts),
				scm.WithLogger(logger))

			errCh := make(chan error, 1)
			go func() {
				errCh <- consumer.StartConsuming()
			}()
			logger.Info("watching notifications", zap.Duration("polling_interval", flgs.PollingInterval))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := consumer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, scm.ErrConsumerClosed) {
				return err
			}
			return nil
		},
	}
	stringFlag(c, &flgs.KafkaBrokers, flagMap.KafkaBrokers)
	stringFlag(c, &flgs.KafkaTopic, flagMap.KafkaTopic)
	stringFlag(c, &flgs.RabbitURL, flagMap.RabbitURL)
	stringFlag(c, &flgs.RabbitQueue, flagMap.RabbitQueue)
	c.Flags().DurationVar(&flgs.PollingInterval, flagMap.PollingInterval.Name, flagMap.PollingInterval.Value, flagMap.PollingInterval.Usage)
	c.Flags().IntVar(&flgs.Concurrency, flagMap.Concurrency.Name, flagMap.Concurrency.Value, flagMap.Concurrency.Usage)
	c.Flags().IntVar(&flgs.MaximumAttempts, flagMap.MaximumAttempts.Name, flagMap.MaximumAttempts.Value, flagMap.MaximumAttempts.Usage)
	return c
}

// buildProcessor returns the relays selected by flgs. The closers must be
// closed even when an error is returned.
func buildProcessor(w io.Writer, flgs *Flags, logger *zap.Logger) (scm.NotificationProcessor, []io.Closer, error) {
	var (
		processors relay.Multi
		closers    []io.Closer
	)
	if brokers := splitList(flgs.KafkaBrokers); len(brokers) > 0 {
		p := relay.NewKafkaPublisher(brokers, flgs.KafkaTopic, logger)
		processors = append(processors, p)
		closers = append(closers, p)
	}
	if flgs.RabbitURL != "" {
		p, err := relay.DialRabbit(flgs.RabbitURL, flgs.RabbitQueue, logger)
		if err != nil {
			return nil, closers, err
		}
		processors = append(processors, p)
		closers = append(closers, p)
	}
	if len(processors) == 0 {
		return &printProcessor{w: w}, closers, nil
	}
	return processors, closers, nil
}

type printProcessor struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printProcessor) Process(_ context.Context, n *scm.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	printMessageWithData(p.w, "", n)
	return nil
}
