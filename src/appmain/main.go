package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdk_trace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/kshitijsingla/chain-viewer/src/api/chainapi"
	"github.com/kshitijsingla/chain-viewer/src/api/dashboard"
	"github.com/kshitijsingla/chain-viewer/src/api/spreadapi"
	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/services"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	run()
}

// setupOTelSDK bootstraps the OpenTelemetry pipeline.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func setupOTelSDK(ctx context.Context) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	// Each registered cleanup will be invoked once.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	// handleErr calls shutdown for cleanup and makes sure that all errors are returned.
	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)

	traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", "chain-viewer")))

	tracerProvider := sdk_trace.NewTracerProvider(
		sdk_trace.WithBatcher(traceExporter),
		sdk_trace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		handleErr(err)
		return
	}

	meterProvider := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		log.Fatalf("runtime.Start: %v", err)
	}

	return
}

// loadViewerConfig reads viewer.yaml, falling back to defaults when the
// file is absent so the server still starts on a fresh checkout.
func loadViewerConfig(configPath string) (*models.ViewerConfigYAML, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("config file %s not found: using defaults", configPath)
			return models.DefaultViewerConfig(), nil
		}

		return nil, fmt.Errorf("loadViewerConfig: read %s: %w", configPath, err)
	}

	var config models.ViewerConfigYAML
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("loadViewerConfig: unmarshal %s: %w", configPath, err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("loadViewerConfig: %w", err)
	}

	return &config, nil
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version}); err != nil {
		log.Errorf("healthzHandler: failed to encode response: %v", err)
	}
}

func run() {
	projectsDir := utils.GetEnvOrDefault("PROJECTS_DIR", ".")
	goEnv := utils.GetEnvOrDefault("GO_ENV", "development")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := utils.InitEnvironmentVariables(projectsDir, goEnv); err != nil {
		log.Warnf("failed to load env file: %v", err)
	}

	log.SetOutput(os.Stdout)

	log.Infof("Log level set to %v", log.GetLevel())

	polygonApiKey, err := utils.GetEnv("POLYGON_API_KEY")
	if err != nil {
		log.Fatalf("$POLYGON_API_KEY not set: %v", err)
	}

	// Set up Telemetry
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		log.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
			log.PanicLevel,
			log.FatalLevel,
			log.ErrorLevel,
			log.WarnLevel,
			log.InfoLevel,
		)))

		otelShutdown, err := setupOTelSDK(ctx)
		if err != nil {
			log.Fatalf("failed to setup otel sdk: %v", err)
		}

		// Handle shutdown properly so nothing leaks.
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("otel shutdown: %v", err)
			}
		}()
	}

	// Load config
	configFile := utils.GetEnvOrDefault("VIEWER_CONFIG_FILE", "viewer.yaml")
	config, err := loadViewerConfig(filepath.Join(projectsDir, configFile))
	if err != nil {
		log.Fatalf("failed to load viewer config: %v", err)
	}

	// Setup polygon clients
	polygonClient := services.NewPolygonClient(polygonApiKey)

	var flatFiles *services.FlatFileStore
	s3AccessKeyID := os.Getenv("POLYGON_S3_ACCESS_KEY_ID")
	s3SecretAccessKey := os.Getenv("POLYGON_S3_SECRET_ACCESS_KEY")
	if s3AccessKeyID != "" && s3SecretAccessKey != "" {
		flatFiles, err = services.NewFlatFileStore(ctx, s3AccessKeyID, s3SecretAccessKey)
		if err != nil {
			log.Warnf("failed to setup flat file store, continuing with the REST API only: %v", err)
			flatFiles = nil
		}
	} else {
		log.Warn("$POLYGON_S3_ACCESS_KEY_ID not set: flat files disabled, continuing with the REST API only")
	}

	builder := services.NewChainBuilder(polygonClient, flatFiles, config)

	// Setup router
	port := utils.GetEnvOrDefault("PORT", "8080")

	router := mux.NewRouter()
	chainapi.SetupHandler(router.PathPrefix("/api").Subrouter(), &chainapi.ChainRequestExecutor{Builder: builder})
	spreadapi.SetupHandler(router.PathPrefix("/api/spread").Subrouter(), &spreadapi.SpreadRequestExecutor{})
	dashboard.SetupHandler(router, config, version)
	router.HandleFunc("/healthz", healthzHandler)

	// Register pprof handlers
	pprofRouter := router.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.HandleFunc("/", http.HandlerFunc(pprof.Index))
	pprofRouter.HandleFunc("/cmdline", http.HandlerFunc(pprof.Cmdline))
	pprofRouter.HandleFunc("/profile", http.HandlerFunc(pprof.Profile))
	pprofRouter.HandleFunc("/symbol", http.HandlerFunc(pprof.Symbol))
	pprofRouter.HandleFunc("/trace", http.HandlerFunc(pprof.Trace))
	pprofRouter.Handle("/allocs", pprof.Handler("allocs"))
	pprofRouter.Handle("/block", pprof.Handler("block"))
	pprofRouter.Handle("/goroutine", pprof.Handler("goroutine"))
	pprofRouter.Handle("/heap", pprof.Handler("heap"))
	pprofRouter.Handle("/mutex", pprof.Handler("mutex"))
	pprofRouter.Handle("/threadcreate", pprof.Handler("threadcreate"))

	// Setup web server
	srv := &http.Server{
		Handler: otelhttp.NewHandler(router, "chain-viewer"),
		Addr:    fmt.Sprintf(":%s", port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start web server
	go func() {
		log.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	// Block here until program is shut down
	<-stop

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	log.Info("Main: gracefully stopped!")
}
