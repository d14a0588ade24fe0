package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dtroode/gallery-client/internal/config"
	"github.com/dtroode/gallery-client/internal/devserver"
	"github.com/dtroode/gallery-client/internal/logger"
	"github.com/dtroode/gallery-client/internal/model"
	"github.com/dtroode/gallery-client/internal/server"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	// A missing .env is fine: the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.NewDevServerConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	gin.SetMode(gin.ReleaseMode)
	httpServer := server.NewHTTPServer(devserver.New(*cfg, logger), cfg.Addr)

	var sl model.SecurityLayer
	if cfg.TLS.Enabled {
		sl = server.NewTLSListener(cfg.TLS.CertFileName, cfg.TLS.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting dev auth server", "address", s.Address(), "base_path", cfg.BasePath, "tls", cfg.TLS.Enabled)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
