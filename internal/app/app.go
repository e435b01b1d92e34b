package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	server "gridwalk/server"
	servernet "gridwalk/server/internal/net"
	"gridwalk/server/internal/observability"
	"gridwalk/server/internal/telemetry"
	"gridwalk/server/logging"
	loggingSinks "gridwalk/server/logging/sinks"
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	if path := os.Getenv("LOG_JSON_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open json log %q: %w", path, err)
		}
		defer file.Close()
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		logConfig.JSON.FilePath = path
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, fallbackLogger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := server.DefaultConfig()
	if dir := os.Getenv("SCENARIO_DIR"); dir != "" {
		hubCfg.ScenarioDir = dir
	}
	if id := os.Getenv("DEFAULT_SCENARIO"); id != "" {
		hubCfg.DefaultScenario = id
	}
	hubCfg.Publisher = router
	hubCfg.Logger = telemetryLogger

	observabilityCfg := cfg.Observability
	if raw := os.Getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			observabilityCfg.EnablePprofTrace = value
		} else {
			telemetryLogger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}

	hub, err := server.NewHub(hubCfg)
	if err != nil {
		return fmt.Errorf("failed to construct hub: %w", err)
	}
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger:        fallbackLogger,
		Observability: observabilityCfg,
	})

	addr := ":8080"
	if raw := os.Getenv("LISTEN_ADDR"); raw != "" {
		addr = raw
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
