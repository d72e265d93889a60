package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/bellebook/catalog/pkg/logging"
	"github.com/bellebook/catalog/runner"
	"github.com/bellebook/catalog/runner/catalogrunner"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner.Banner()

	cfg := runner.ParseConfig()
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan

		log.Info("received signal, shutting down")

		cancel()
	}()

	runnerInstance, err := catalogrunner.New(cfg, log)
	if err != nil {
		log.Error("failed to start", "err", err)
		os.Exit(1)
	}

	egroup, ctx := errgroup.WithContext(ctx)

	egroup.Go(func() error {
		if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := egroup.Wait(); err != nil {
		log.Error("runner failed", "err", err)
		_ = runnerInstance.Close(ctx)
		os.Exit(1)
	}

	_ = runnerInstance.Close(ctx)
}
