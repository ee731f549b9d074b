// haul pushes a directory tree to a remote receiver, one file per
// connection, verifying each transfer with an MD5 digest.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bytehaul/bytehaul/internal/app"
	"github.com/bytehaul/bytehaul/internal/config"
	"github.com/bytehaul/bytehaul/internal/logging"
	"github.com/bytehaul/bytehaul/internal/progress"
	"github.com/bytehaul/bytehaul/internal/retry"
	"github.com/bytehaul/bytehaul/internal/transfer"
	"github.com/bytehaul/bytehaul/internal/transport"
)

const version = "v0.1.0"

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			fmt.Println("haul " + version)
			return
		}
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	logger := logging.New("haul", cfg.LogLevel)
	sink := progress.NewConsoleSink(os.Stdout)

	pusher := &app.Pusher{
		Dialer:   buildDialer(cfg, logger),
		Policy:   retry.Policy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		Opts:     transfer.Options{ChunkSize: cfg.ChunkSize},
		Observer: sink,
		Logger:   logger,
	}
	dispatcher := &app.Dispatcher{
		Root:   cfg.Root,
		Pusher: pusher,
		Logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := dispatcher.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func buildDialer(cfg config.Config, logger *slog.Logger) transport.Dialer {
	switch cfg.Transport {
	case "quic":
		return transport.NewQUICDialer(cfg.Host, cfg.Port, logger)
	case "ws":
		return transport.NewWSDialer(cfg.WSURL, logger)
	default:
		return transport.NewTCPDialer(cfg.Host, cfg.Port, logger)
	}
}
