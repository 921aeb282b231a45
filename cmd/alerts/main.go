package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/alerts"
	"github.com/ariefcatur/warung-market.git/internal/config"
	"github.com/ariefcatur/warung-market.git/internal/httpx"
	kafkax "github.com/ariefcatur/warung-market.git/internal/kafka"
	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/notify"
	"github.com/ariefcatur/warung-market.git/internal/redisx"
	"github.com/joho/godotenv"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Fan-out hub for seller rooms
	hub := notify.NewHub()
	go hub.Run()

	svc := &alerts.Service{
		Hub:         hub,
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-alerts",
	}

	// Consumer
	group := getenv("ALERTS_GROUP", "alerts-svc")
	workers := mustAtoi(os.Getenv("ALERTS_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, market.TopicOrderCreated, workers)

	go func() {
		log.Printf("alerts consumer started: group=%s topic=%s workers=%d", group, market.TopicOrderCreated, workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// WS endpoint for sellers
	router := httpx.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		notify.ServeWS(hub, w, r)
	})
	srv := &http.Server{Addr: cfg.AlertsAddr, Handler: router}

	go func() {
		log.Printf("alerts WS listening at %s", cfg.AlertsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down alerts...")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	close(hub.Quit)
	time.Sleep(200 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
