package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"quickbite/internal/api"
	"quickbite/internal/config"
	"quickbite/internal/database"
	"quickbite/internal/dispatch"
	"quickbite/internal/jobs"
	"quickbite/internal/location"
	"quickbite/internal/monitoring"
	"quickbite/internal/realtime"
	"quickbite/internal/rooms"
	"quickbite/internal/service"
	"quickbite/internal/store"
)

var configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	stores, err := store.NewGormStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	monitor := monitoring.NewMonitor()

	// The hub publishes for the dispatcher, and the session read loop
	// calls back into the services, so wiring happens in two steps.
	hub := realtime.NewHub(rooms.NewRegistry())
	dispatcher := dispatch.NewDispatcher(hub)

	orders := service.NewOrderService(stores, stores, dispatcher, monitor, service.Policy{
		DeliveryFee:       cfg.Delivery.FeePerDelivery,
		MaxActiveOrders:   cfg.Delivery.MaxActiveOrders,
		DefaultETAMinutes: cfg.Delivery.DefaultETAMinutes,
	})
	locations := location.NewHandler(stores, stores, dispatcher)
	hub.Attach(orders, locations)

	llm := initializeLLM(cfg)
	payments := api.NewPaymentGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)

	server := api.NewServer(orders, stores, locations, hub, monitor, payments, llm, cfg.JWTSecret)

	sweep := jobs.NewPartnerSweepJob(stores, time.Duration(cfg.Delivery.PartnerIdleMinutes)*time.Minute)
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to start partner sweep: %v", err)
	}
	defer sweep.Stop()

	go startMetricsServer(cfg.Server.MetricsPort)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func initializeLLM(cfg *config.Config) llms.LLM {
	if cfg.OpenAI.APIKey == "" {
		log.Println("OPENAI_API_KEY not set, AI recommendations disabled")
		return nil
	}
	llm, err := openai.New(
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithToken(cfg.OpenAI.APIKey),
	)
	if err != nil {
		log.Printf("Failed to initialize OpenAI client: %v", err)
		return nil
	}
	return llm
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
