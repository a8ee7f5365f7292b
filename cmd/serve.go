/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/auth"
	"github.com/codearena/judgecore/internal/contest"
	"github.com/codearena/judgecore/internal/db"
	"github.com/codearena/judgecore/internal/httpserver"
	"github.com/codearena/judgecore/internal/intake"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/internal/store"
)

var flushData bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP front-end: registration, login, job intake, and contest queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

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

		if flushData {
			if err := flushTables(ctx, conn); err != nil {
				return fmt.Errorf("flushing data: %w", err)
			}
		}

		users := store.NewUserRepository(conn)
		if err := bootstrapRoot(ctx, users); err != nil {
			return fmt.Errorf("bootstrapping root account: %w", err)
		}

		contests := store.NewContestRepository(conn)
		jobs := store.NewJobRepository(conn)

		bus, err := newBus(ctx, infra)
		if err != nil {
			return fmt.Errorf("connecting to message bus: %w", err)
		}
		defer bus.Close()

		intakeSvc := intake.New(static, users, contests, jobs, bus, mq.Namespace("judgecore", infra.QueueName))
		ranklistEngine := contest.New(contest.StoreJobSource{Jobs: jobs})
		sessions := auth.New(infra.JWTSecret)

		srv := httpserver.New(infra, httpserver.Deps{
			DB:       conn,
			Static:   static,
			Sessions: sessions,
			AuthMode: infra.AuthEnabled,
			Users:    users,
			Contests: contests,
			Jobs:     jobs,
			Intake:   intakeSvc,
			Ranklist: ranklistEngine,
		})

		errCh := make(chan error, 1)
		go func() {
			log.Printf("serve: listening")
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			log.Printf("serve: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&flushData, "flush-data", false, "truncate users, contests, and jobs before starting")
}

func flushTables(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `TRUNCATE jobs, contests, users RESTART IDENTITY`)
	return err
}

func bootstrapRoot(ctx context.Context, users *store.UserRepository) error {
	if _, err := users.GetByID(ctx, 0); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(rootBootstrapPassword)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, rootUser(hash))
	return err
}
