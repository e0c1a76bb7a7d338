package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/server"
	"github.com/verte-zerg/keyrush/internal/session"
	"github.com/verte-zerg/keyrush/internal/store"
)

var (
	serveAddr     string
	serveWordList string
	serveOrigins  []string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results API and browser sessions",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().StringVar(&serveWordList, "wordlist", "", "custom word list, one word per line")
	cmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "extra browser origin allowed to open session sockets (repeatable)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "wordlist", &serveWordList, fileCfg.Practice.WordList)
	if !cmd.Flags().Changed("origin") && fileCfg.Server.Origins != nil {
		serveOrigins = fileCfg.Server.Origins
	}

	words, err := wordSource(serveWordList)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	mode := model.DefaultMode(model.CategoryTime)
	if fileCfg.Practice.Mode != nil {
		// Validated on load.
		mode, _ = model.ParseMode(*fileCfg.Practice.Mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, session.Options{
		Mode:   mode,
		Words:  words,
		Quotes: newQuoteClient(fileCfg, logger),
	}, logger, serveOrigins...)
	return srv.ListenAndServe(ctx, serveAddr)
}
