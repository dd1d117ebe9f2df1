package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aashish23092/id-document-scanner/client"
	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/handler"
	"github.com/Aashish23092/id-document-scanner/middleware"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/Aashish23092/id-document-scanner/service"
	"github.com/Aashish23092/id-document-scanner/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded", "ocr_engine", cfg.OCR.Engine)

	// Initialize the backend chain
	scanService := buildScanService(cfg)
	scanService.Start(context.Background())
	defer func() {
		if err := scanService.Close(); err != nil {
			slog.Error("failed to close backends", "error", err)
		}
	}()
	slog.Info("backend chain ready", "backends", scanService.Backends())

	scanHandler := handler.NewScanHandler(scanService, service.NewPDFProcessor(), cfg.Server.MaxFileSize)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxFileSize

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", scanHandler.Health)

	api := router.Group("/api/v1")
	if cfg.Auth.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(&cfg.Auth))
	}
	{
		api.POST("/scan", scanHandler.Scan)
		api.GET("/backends", scanHandler.Backends)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exited gracefully")
}

// buildScanService assembles the fallback chain: the general OCR engine,
// then the MRZ sidecar, then Textract.
func buildScanService(cfg *config.Config) *service.ScanService {
	resolver := utils.NewMRZDecoderResolver(utils.ICAODecoderLoader(cfg.MRZ.StatesFile))
	parser := utils.NewMRZParser(resolver)

	var barcode *service.BarcodeReader
	if cfg.Barcode.Enabled {
		barcode = service.NewBarcodeReader()
	}

	var (
		engine        service.TextEngine
		engineTimeout = cfg.Timeouts.Scan
	)
	switch cfg.OCR.Engine {
	case config.BackendVision:
		engine = client.NewVisionClient(cfg.Vision.CredentialsFile)
		engineTimeout = cfg.Timeouts.Cloud
	default:
		engine = client.NewTesseractClient(cfg.Tesseract.DataPath, cfg.Tesseract.Language)
	}

	backends := []service.BackendConfig{{
		Backend: service.NewGeneralAdapter(cfg.OCR.Engine, engine, parser, barcode),
		Policy:  service.GatePolicyFromConfig(cfg.Gates.For(cfg.OCR.Engine)),
		Timeout: engineTimeout,
	}}

	if cfg.MRZService.Enabled {
		backends = append(backends, service.BackendConfig{
			Backend: service.NewDocumentAdapter(client.NewMRZServiceClient(cfg.MRZService.URL, nil)),
			Policy:  service.GatePolicyFromConfig(cfg.Gates.For(config.BackendPassportEye)),
			Timeout: cfg.Timeouts.Scan,
		})
	}

	if cfg.Textract.Enabled {
		backends = append(backends, service.BackendConfig{
			Backend: service.NewCloudAdapter(client.NewTextractClient(cfg.Textract.Region, cfg.Textract.Endpoint)),
			Policy:  service.GatePolicyFromConfig(cfg.Gates.For(config.BackendTextract)),
			Timeout: cfg.Timeouts.Cloud,
		})
	}

	return service.NewScanService(cfg.Timeouts.Availability, backends...)
}
