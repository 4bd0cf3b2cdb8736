package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraudguard/detector"
	"fraudguard/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to config.json (default: ./config.json)")
	addr := flag.String("addr", "", "Listen address, overrides the config value")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := detector.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	encoders, err := detector.LoadLabelEncoders(cfg.EncodersPath)
	if err != nil {
		log.Fatalf("load label encoders: %v", err)
	}
	classifier, err := detector.NewOnnxClassifier(cfg.Model)
	if err != nil {
		log.Fatalf("load classifier: %v", err)
	}

	svc, err := detector.NewService(classifier, encoders, cfg, logger)
	if err != nil {
		log.Fatalf("init service: %v", err)
	}
	defer svc.Close()

	router := web.NewRouter(svc, logger)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}

	go func() {
		logger.Printf("starting server on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
