package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/internal/api"
	"github.com/finchlabs/labflow/internal/discovery"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the valve HTTP API",
	Long: `Start the HTTP API for every configured device and announce the
server on the local network via mDNS.

Endpoints:
  GET  /devices                    configured devices
  GET  /devices/{name}/position    current position
  PUT  /devices/{name}/position    switch position
  GET  /devices/{name}/positions   full connection graph
  GET  /healthz                    liveness
  GET  /metrics                    Prometheus metrics`,
	Run: func(cmd *cobra.Command, args []string) {
		noMDNS, _ := cmd.Flags().GetBool("no-mdns")

		cfg, mgr, reg, log, err := setup()
		if err != nil {
			fatal(err)
		}
		defer reg.CloseAll()

		handler := api.NewHandler(mgr, api.NewMetrics(), log)
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		if !noMDNS {
			if adv, err := advertise(cfg.Listen, mgr); err != nil {
				log.Warn("mdns registration failed", "error", err)
			} else {
				defer adv.Close()
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			log.Info("serving", "addr", cfg.Listen, "devices", len(mgr.List()))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				fatal(err)
			}
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("shutdown failed", "error", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-mdns", false, "Do not announce the server via mDNS")
}

func advertise(listen string, mgr *labflow.Manager) (*discovery.Advertiser, error) {
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("parsing listen address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing listen port: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "labflow"
	}
	info := []string{
		"version=" + labflow.Version,
		"devices=" + strconv.Itoa(len(mgr.List())),
	}
	return discovery.Advertise(host, port, info)
}
