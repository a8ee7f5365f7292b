/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/db"
	"github.com/codearena/judgecore/internal/judge"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/internal/store"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Starts a judge worker: consumes queued jobs, runs them in the sandbox, and records results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		static, err := config.LoadStatic(configPath)
		if err != nil {
			return fmt.Errorf("loading static config: %w", err)
		}
		infra, err := config.LoadInfra()
		if err != nil {
			return fmt.Errorf("loading infra config: %w", err)
		}

		conn, err := db.Open(ctx, infra)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer conn.Close()

		users := store.NewUserRepository(conn)
		if err := bootstrapRoot(ctx, users); err != nil {
			return fmt.Errorf("bootstrapping root account: %w", err)
		}

		jobs := store.NewJobRepository(conn)

		bus, err := newBus(ctx, infra)
		if err != nil {
			return fmt.Errorf("connecting to message bus: %w", err)
		}
		defer bus.Close()

		archiver, err := newArchiver(ctx, infra)
		if err != nil {
			return fmt.Errorf("connecting to artifact storage: %w", err)
		}

		queue := mq.Namespace("judgecore", infra.QueueName)
		w := judge.New(jobs, static, bus, queue, archiver)

		log.Printf("worker: consuming %s with %d goroutine(s)", queue, infra.WorkerConcurrency)

		// errgroup fans the consume-loop out across WorkerConcurrency
		// goroutines sharing one bus connection, cancels every other
		// goroutine's ctx as soon as one returns a non-shutdown error,
		// and joins them before Execute reports the final status.
		group, gctx := errgroup.WithContext(ctx)
		for i := 0; i < infra.WorkerConcurrency; i++ {
			group.Go(func() error {
				return w.Run(gctx)
			})
		}

		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
