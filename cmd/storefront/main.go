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

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/basho-studio/storefront/internal/cart/repository"
	cartsvc "github.com/basho-studio/storefront/internal/cart/service"
	"github.com/basho-studio/storefront/internal/cart/syncer"
	"github.com/basho-studio/storefront/internal/checkout/client"
	"github.com/basho-studio/storefront/internal/checkout/gateway"
	checkout "github.com/basho-studio/storefront/internal/checkout/service"
	"github.com/basho-studio/storefront/internal/httpapi"
	"github.com/basho-studio/storefront/internal/identity"
	"github.com/basho-studio/storefront/internal/notify"
	"github.com/basho-studio/storefront/internal/pricing"
)

func loadConfig(path string) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	viper.SetDefault("server.http_port", "8080")
	viper.SetDefault("server.request_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("cart.backend", "redis")
	viper.SetDefault("cart.redis_addr", "localhost:6379")
	viper.SetDefault("cart.mongo_uri", "mongodb://localhost:27017")
	viper.SetDefault("cart.mongo_database", "storefront")
	viper.SetDefault("notify.backend", "inproc")
	viper.SetDefault("notify.kafka_topic", "cart-changes")
	viper.SetDefault("notify.kafka_group", "storefront")
	viper.SetDefault("shipping.base_url", "http://localhost:8001")
	viper.SetDefault("shipping.timeout", "10s")
	viper.SetDefault("orders.base_url", "http://localhost:8000")
	viper.SetDefault("orders.timeout", "30s")
	viper.SetDefault("gateway.ready", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("config file not loaded, using defaults and env: %v", err)
	}
}

func buildRepository(ctx context.Context) (repository.CartRepository, func(), error) {
	switch backend := viper.GetString("cart.backend"); backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: viper.GetString("cart.redis_addr")})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(rdb), func() { rdb.Close() }, nil
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, viper.GetString("cart.mongo_uri"), viper.GetString("cart.mongo_database"))
		if err != nil {
			return nil, nil, err
		}
		return repository.NewMongoRepository(db), func() {
			_ = db.Client().Disconnect(context.Background())
		}, nil
	default:
		return nil, nil, errors.New("unknown cart backend: " + backend)
	}
}

func buildBus(ctx context.Context) (notify.Bus, func()) {
	if viper.GetString("notify.backend") != "kafka" {
		return notify.NewInprocBus(), func() {}
	}
	bus := notify.NewKafkaBus(
		viper.GetString("notify.kafka_topic"),
		viper.GetString("notify.kafka_group"),
		viper.GetStringSlice("notify.kafka_brokers")...,
	)
	go bus.Run(ctx)
	return bus, bus.Close
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	loadConfig(*configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := buildRepository(ctx)
	if err != nil {
		log.Fatalf("failed to connect cart storage: %v", err)
	}
	defer closeRepo()

	bus, closeBus := buildBus(ctx)
	defer closeBus()

	store := cartsvc.NewStore(repo, bus, func(op string, err error) {
		log.Printf("cart %s failed: %v", op, err)
	})
	store.Start(ctx)

	// Identity starts unresolved; cart mutations queue until an auth
	// decision arrives through the API.
	ids := identity.NewPending()
	sync := syncer.New(store, ids, bus)
	sync.Start(ctx)
	defer sync.Close()

	shipping := pricing.NewHTTPShippingClient(
		viper.GetString("shipping.base_url"),
		viper.GetDuration("shipping.timeout"),
	)
	engine := pricing.NewEngine(shipping)

	orders := client.NewHTTPOrderClient(
		viper.GetString("orders.base_url"),
		viper.GetDuration("orders.timeout"),
	)

	gw := gateway.NewCallbackGateway()
	gw.SetReady(viper.GetBool("gateway.ready"))

	orch := checkout.NewOrchestrator(store, engine, orders, gw)

	requestTimeout := viper.GetDuration("server.request_timeout")
	router := httpapi.NewRouter(httpapi.Handlers{
		Cart:     httpapi.NewCartHandler(store),
		Checkout: httpapi.NewCheckoutHandler(orch),
		Payment:  httpapi.NewPaymentHandler(gw),
		Identity: httpapi.NewIdentityHandler(ids),
	}, requestTimeout)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.http_port"),
		Handler: otelhttp.NewHandler(router, "storefront"),
	}

	go func() {
		log.Printf("storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), viper.GetDuration("server.shutdown_timeout"))
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// Stop the persist worker after the server has drained.
	cancel()
	time.Sleep(100 * time.Millisecond)
	log.Println("storefront stopped")
}
