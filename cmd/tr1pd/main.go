// Command tr1pd is the ledger daemon: it owns the signing ring, the
// storage backend, and the control socket, and is the only process
// permitted to append to a given data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/tr1pd/tr1pd"
)

func main() {
	app := &cli.App{
		Name:                 "tr1pd",
		Usage:                "tamper-evident append-only ledger daemon",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "socket",
				Usage:   "control socket path",
				EnvVars: []string{"TR1PD_SOCKET"},
				Value:   tr1pd.DefaultSocketPath,
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "ledger data directory",
				EnvVars: []string{"TR1PD_DATADIR"},
				Value:   tr1pd.DefaultDataDir,
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "suppress info-level logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tr1pd:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	dataDir := c.String("data-dir")
	socketPath := c.String("socket")

	log := newLogger(c.Bool("quiet"))

	pkPath, skPath := tr1pd.KeyPaths(filepath.Join(dataDir, "keys"))
	ltPK, ltSK, err := tr1pd.ReadLongtermKeys(pkPath, skPath)
	if err != nil {
		return fmt.Errorf("load long-term keypair (run `tr1pdctl init` first): %w", err)
	}

	store, err := tr1pd.OpenDiskStore(dataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	signer := tr1pd.NewSigningRing(ltPK, ltSK)
	engine, err := tr1pd.Start(store, signer)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	log.Info().Str("head", engine.Head().String()).Msg("engine started")

	if err := os.MkdirAll(filepath.Dir(socketPath), 0750); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	server, err := tr1pd.NewServer(engine, socketPath, log)
	if err != nil {
		return fmt.Errorf("bind control socket: %w", err)
	}
	defer server.Close()
	log.Info().Str("socket", socketPath).Msg("listening")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}

func newLogger(quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
