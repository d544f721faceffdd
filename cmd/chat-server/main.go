// Command chat-server runs the accept loop, broker, and database
// worker of spec.md §4.8, wired from a TOML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catchat/chat/config"
	"github.com/catchat/chat/corelog"
	"github.com/catchat/chat/metrics"
	"github.com/catchat/chat/server"
	"github.com/catchat/chat/store"
	"github.com/catchat/chat/wire"
)

func main() {
	var cfgPath string
	var showVersion bool
	flag.StringVar(&cfgPath, "config", "chat-server.toml", "server configuration file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(versioninfo.Short())
		return
	}

	cfg, err := config.LoadServerConfig(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "INFO"
	}
	backend, err := corelog.NewBackend(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := backend.GetLogger("chat-server")

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	frameSize := cfg.FrameSize
	if frameSize == 0 {
		frameSize = wire.DefaultFrameSize
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsBind, mux); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	srv := server.New(db, log, m, frameSize)

	ln, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.Bind, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("chat-server listening on %s", cfg.Bind)
	if err := srv.Serve(ctx, ln); err != nil {
		log.Errorf("serve: %v", err)
	}
	srv.Shutdown()
	log.Infof("chat-server stopped")
}
