package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chengwu26/heart-rate-monitor/internal/ble"
	"github.com/chengwu26/heart-rate-monitor/internal/config"
	"github.com/chengwu26/heart-rate-monitor/internal/handlers"
	"github.com/chengwu26/heart-rate-monitor/internal/logger"
	"github.com/chengwu26/heart-rate-monitor/internal/server"
	"github.com/chengwu26/heart-rate-monitor/internal/store"
	"github.com/chengwu26/heart-rate-monitor/internal/theme"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/heart-rate-monitor/config.yaml)")
	port := flag.Int("port", -1, "listening port, overrides config (0: system assignment)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port >= 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	zlog := logger.Get(cfg.LogLevel)
	defer zlog.Sync()

	// The theme must load before anything listens; a missing or broken
	// theme is a startup error, not a runtime one.
	html, err := theme.Load(cfg.Theme)
	if err != nil {
		zlog.Fatalw("loading theme", "path", cfg.Theme, "err", err)
	}

	// Bind first so the effective port is known for the template.
	srv := &server.Server{}
	boundPort, err := srv.Listen(fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		zlog.Fatalw("binding listener", "port", cfg.Port, "err", err)
	}

	page, err := theme.Render(html, theme.Context{
		"PORT": strconv.Itoa(boundPort),
	})
	if err != nil {
		zlog.Fatalw("rendering theme", "path", cfg.Theme, "err", err)
	}

	st := store.New()
	monitor := ble.NewMonitor(ble.NewBluetoothAdapter(), st, zlog, ble.Options{
		DeviceAddress: cfg.Device.Address,
		DeviceName:    cfg.Device.Name,
		ScanTimeout:   time.Duration(cfg.Device.ScanTimeout) * time.Second,
		BackoffMax:    time.Duration(cfg.Device.BackoffMax) * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- monitor.Run(ctx) }()

	h := handlers.New(st, page, zlog)
	go func() {
		if err := srv.Serve(h.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("http server", "err", err)
		}
	}()

	zlog.Infow("listening", "url", fmt.Sprintf("http://127.0.0.1:%d", boundPort))
	if cfg.Device.Address != "" {
		zlog.Infow("watching for pinned device", "address", cfg.Device.Address)
	} else {
		zlog.Infow("watching for any heart rate device")
	}

	// Graceful shutdown: release the BLE session, then drain HTTP.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zlog.Infow("shutting down", "signal", sig.String())

	cancel()
	select {
	case err := <-monitorDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Warnw("monitor exit", "err", err)
		}
	case <-time.After(shutdownTimeout):
		zlog.Warnw("monitor did not stop in time")
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		zlog.Warnw("http shutdown", "err", err)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	return config.Default(), nil
}
