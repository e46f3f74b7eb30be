package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"graphwire/config"
	"graphwire/gwire"
	"graphwire/log"
	"graphwire/rpc"
	"graphwire/store"
	"graphwire/version"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.ReadConfigFile(configuredHomeDir)
		if err != nil {
			return errors.Wrap(err, "error reading config file")
		}
		logLevel, err := log.NewLevel(cfg.LogLevel)
		if err != nil {
			return errors.Wrap(err, "error parsing log level")
		}
		log.SetLevel(logLevel)
		lgr := log.WithModule("main")

		lgr.Info("starting gwired", "git_commit", version.GitCommit, "git_tag", version.GitTag)
		lgr.Info("opening home directory", "path", configuredHomeDir)

		engine, err := gwire.NewEngine(cfg.EngineOptions())
		if err != nil {
			return errors.Wrap(err, "error configuring engine")
		}
		compression, err := store.ParseCompressionTag(cfg.Store.Compression)
		if err != nil {
			return errors.Wrap(err, "error parsing store compression")
		}

		dbPath := config.ExpandDBPath(configuredHomeDir)
		lgr.Info("opening db", "path", dbPath)
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		st := store.New(db, &store.Opts{
			Engine:        engine,
			Compression:   compression,
			CacheExpiryMS: int64(cfg.Store.CacheExpiryMS),
		})
		server := rpc.NewServer(&rpc.Opts{
			Store:                 st,
			Host:                  cfg.RPC.Host,
			Port:                  cfg.RPC.Port,
			MaxConcurrentRequests: cfg.RPC.MaxConcurrentRequests,
			MaxWritesPerSecond:    cfg.RPC.MaxWritesPerSecond,
			WriteBurst:            cfg.RPC.WriteBurst,
		})

		lgr.Info("starting rpc server", "host", cfg.RPC.Host, "port", cfg.RPC.Port, "compression", compression)
		if err := server.Start(); err != nil {
			return errors.Wrap(err, "error starting rpc server")
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		sig := <-sigs
		lgr.Info("shutting down", "signal", sig)
		return server.Stop()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
