package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitclaw/internal/config"
	"pitclaw/internal/core/orchestrator"
	"pitclaw/internal/hal/simclock"
	"pitclaw/internal/hal/simio"
	"pitclaw/internal/hal/siminput"
	"pitclaw/internal/logger"
	"pitclaw/internal/repository"
	"pitclaw/internal/repository/db"
	"pitclaw/internal/server"
	"pitclaw/internal/service"

	"github.com/spf13/viper"
)

// tickInterval is the control loop quantum; the firmware this repository
// models samples and actuates at roughly 100Hz.
const tickInterval = 10 * time.Millisecond

func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadServerConfig(); err != nil {
		log.Fatalw("error reading server config", "err", err)
	}

	ctlCfg, err := config.Load(viper.GetString("controller.path"))
	if err != nil {
		log.Fatalw("error reading controller config", "err", err)
	}

	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos)

	orch := buildOrchestrator(ctlCfg, services, log)
	if err := orch.Begin(); err != nil {
		log.Fatalw("failed to recover prior cook session", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runTickLoop(ctx, orch, log)

	srv := &server.Server{}
	router := server.NewRouter(orch, services, log)
	runHTTPServer(srv, viper.GetString("port"), router, log)

	waitForShutdown(cancel, srv, log)
}

// buildOrchestrator wires every subsystem through the wall clock and the
// simio.Recorder outputs, since no real PWM/servo/buzzer peripheral is
// attached to this process.
func buildOrchestrator(ctlCfg *config.Config, services *service.Service, log *logger.Logger) *orchestrator.Orchestrator {
	clock := simclock.NewWall()
	fanOut := simio.NewRecorder()
	damperOut := simio.NewRecorder()
	buzzerOut := simio.NewRecorder()

	audit := func(kind string, detail map[string]any) {
		if err := services.Audit.Append(context.Background(), kind, kind, detail); err != nil && log != nil {
			log.Errorw("audit_append_failed", "kind", kind, "err", err)
		}
	}

	return orchestrator.New(clock, fanOut, damperOut, buzzerOut, ctlCfg.ToOrchestratorConfig(), audit)
}

// runTickLoop drives the control loop at tickInterval. There is no real
// thermistor divider attached to this process, so siminput.Source stands
// in for the ADC: every channel holds a fixed raw count until something
// external (a future real driver) calls SetRaw.
func runTickLoop(ctx context.Context, orch *orchestrator.Orchestrator, log *logger.Logger) {
	source := siminput.NewSource()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			orch.Tick(source.Raws())

			if snap := orch.Snapshot(); log != nil && len(snap.ActiveErrors) > 0 {
				log.Infow("active_errors", "errors", snap.ActiveErrors)
			}
		}
	}
}

// loadServerConfig reads the transport/storage settings (port, db path,
// controller tuning file) from configs/config.yml.
func loadServerConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.SetDefault("controller.path", "configs/controller.yml")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "pitclaw.db")
		dbPath = "pitclaw.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, router *server.Router, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, router.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
