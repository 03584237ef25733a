package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olivierh59500/dot-spawner/internal/config"
	"github.com/olivierh59500/dot-spawner/internal/driver"
	"github.com/olivierh59500/dot-spawner/internal/game"
	"github.com/olivierh59500/dot-spawner/internal/logging"
	"github.com/olivierh59500/dot-spawner/internal/report"
	"github.com/olivierh59500/dot-spawner/internal/sim"
	"github.com/olivierh59500/dot-spawner/internal/stream"
	"github.com/olivierh59500/dot-spawner/internal/term"
)

func main() {
	os.Exit(realMain(os.Args))
}

// realMain returns the exit code so deferred cleanup runs before os.Exit:
// 2 for bad configuration, 1 when the run fails.
func realMain(args []string) int {
	cfg, err := config.Parse(args[0], args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if logFile := logging.Setup(cfg.Debug); logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// run builds the simulation and hands it to the selected backend
func run(cfg config.Config) error {
	params, err := cfg.SimParams()
	if err != nil {
		return err
	}
	s, err := sim.New(params, sim.NewSource(cfg.Seed))
	if err != nil {
		return err
	}

	opts := []driver.Option{
		driver.WithInterval(cfg.TickInterval.Duration),
		driver.WithFrames(cfg.Frames),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Backend {
	case config.BackendWindow:
		return game.Run(game.New(s, cfg.Frames, cfg.DotRadius, cfg.Seed), cfg.TickInterval.Duration)

	case config.BackendTerminal:
		r, err := term.Open(params.Width, params.Height, params.Policy)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go r.Watch(ctx, cancel)
		return driver.New(s, r, opts...).Run(ctx)

	case config.BackendStream:
		srv := stream.New(params.Width, params.Height)
		addr, err := srv.Listen(cfg.StreamAddr)
		if err != nil {
			return err
		}
		fmt.Printf("streaming on http://%s\n", addr)
		return driver.New(s, srv, opts...).Run(ctx)

	case config.BackendHeadless:
		rec := report.New()
		if err := driver.New(s, rec, opts...).Run(ctx); err != nil {
			return err
		}
		fmt.Println(rec.Summary(params.Policy))
		return nil
	}
	return fmt.Errorf("%w: %q", config.ErrBackend, cfg.Backend)
}
