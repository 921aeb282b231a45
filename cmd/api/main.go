package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/warung-market.git/internal/auth"
	"github.com/ariefcatur/warung-market.git/internal/checkout"
	"github.com/ariefcatur/warung-market.git/internal/config"
	"github.com/ariefcatur/warung-market.git/internal/httpx"
	kafkax "github.com/ariefcatur/warung-market.git/internal/kafka"
	"github.com/ariefcatur/warung-market.git/internal/market"
	"github.com/ariefcatur/warung-market.git/internal/postgres"
	"github.com/ariefcatur/warung-market.git/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka sink; lifetime is driven by Close, not by ctx
	sink := kafkax.NewSink(cfg.KafkaBrokers, 1024, market.TopicOrderCreated)
	sink.Start(context.Background())

	// Repos & engine
	catalog := &market.Repo{DB: db}
	carts := &market.CartRepo{DB: db}
	orders := &market.OrderRepo{DB: db}
	engine := &checkout.Engine{
		Store:   &checkout.PgStore{DB: db},
		Pub:     sink,
		Service: cfg.ServiceName,
	}
	verifier := &auth.Verifier{Redis: rdb, Users: catalog}

	// Router & handlers
	router := httpx.NewRouter()
	authed := httpx.Authenticate(verifier)
	(&httpx.ProfileHandler{Users: catalog}).Register(router, authed)
	(&httpx.CatalogHandler{Repo: catalog}).Register(router, authed)
	(&httpx.CartHandler{Cart: carts, Catalog: catalog}).Register(router, authed)
	(&httpx.CheckoutHandler{Engine: engine}).Register(router, authed)
	(&httpx.OrdersHandler{Orders: orders, Catalog: catalog, Redis: rdb}).Register(router, authed)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	sink.Close() // tutup inbox -> flush & close writer
	sink.WaitClosed()
}
