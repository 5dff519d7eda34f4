package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/xiaobei/singbox-manager/adapter/boltstore"
	"github.com/xiaobei/singbox-manager/component/ruleset"
	"github.com/xiaobei/singbox-manager/hub/route"
	"github.com/xiaobei/singbox-manager/log"

	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the management api from a local rule database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o755); err != nil {
			return err
		}
		store, err := boltstore.Open(cfg.Server.DBPath, boltstore.Option{
			Filters:       cfg.Filters,
			CountryGroups: cfg.CountryGroups,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		prober := ruleset.NewProber(cfg.ProberOption())
		handler := route.Router(store, prober, route.Option{AllowOrigins: cfg.Server.AllowOrigins})

		addr := cfg.Server.Listen
		if listenAddr != "" {
			addr = listenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := route.Start(ctx, addr, handler); err != nil {
			return err
		}
		log.Infoln("[API] server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "override server.listen")
}
