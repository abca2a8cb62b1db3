package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"feed-client/configs"
	"feed-client/internal/gateway"
	"feed-client/internal/identity"
	"feed-client/internal/interaction"
	"feed-client/internal/kafka"
	"feed-client/internal/media"
	"feed-client/internal/mirror"
	"feed-client/internal/shared/db"
	"feed-client/internal/shared/redisx"
	"feed-client/internal/surface"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func initOTEL(ctx context.Context) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "otel-collector:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Fatalf("otel exporter: %v", err)
	}
	name := os.Getenv("OTEL_SERVICE_NAME")
	if name == "" {
		name = "feed-client"
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		attribute.String("deployment.environment", os.Getenv("ENV")),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func openMirror(ctx context.Context, cfg *configs.Config) (mirror.Mirror, func(), error) {
	switch cfg.MirrorBackend {
	case "redis":
		rdb, err := redisx.Open(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return mirror.New(mirror.NewRedisBackend(rdb, cfg.MirrorPrefix)), func() { _ = rdb.Close() }, nil
	case "postgres":
		store, err := db.Open(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		gb := mirror.NewGormBackend(store, cfg.MirrorPrefix)
		if os.Getenv("AUTO_MIGRATE") != "false" {
			if err := gb.Migrate(); err != nil {
				_ = store.Close()
				return nil, nil, err
			}
		}
		return mirror.New(gb), func() { _ = store.Close() }, nil
	default:
		fb, err := mirror.NewFileBackend(cfg.MirrorFile)
		if err != nil {
			return nil, nil, err
		}
		return mirror.New(fb), func() {}, nil
	}
}

func openResolver(cfg *configs.Config) media.Resolver {
	if cfg.S3Endpoint == "" {
		return media.NewServerResolver(cfg.APIBaseURL)
	}
	r, err := media.NewS3Resolver(media.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		TTL:       cfg.S3URLTTL,
	})
	if err != nil {
		log.Printf("media: s3 disabled: %v", err)
		return media.NewServerResolver(cfg.APIBaseURL)
	}
	return r
}

func main() {
	cfg := configs.LoadConfig()
	ctx := context.Background()

	shutdown := initOTEL(ctx)
	defer func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdown(c)
	}()

	m, closeMirror, err := openMirror(ctx, cfg)
	if err != nil {
		log.Fatalf("mirror %s: %v", cfg.MirrorBackend, err)
	}
	defer closeMirror()

	gw := gateway.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.GatewayTimeout)

	session := identity.NewSession()
	if cfg.APIToken != "" {
		u, err := identity.FromToken(cfg.APIToken, []byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("identity: token: %v", err)
		} else {
			session.Set(u)
		}
	}
	if _, ok := session.Current(); !ok && cfg.APIToken != "" {
		uctx, cancel := context.WithTimeout(ctx, cfg.GatewayTimeout)
		if u, err := gw.CurrentUser(uctx); err == nil {
			session.Set(u)
		} else {
			log.Printf("identity: current user: %v", err)
		}
		cancel()
	}

	alerts := surface.NewAlerts(0)
	opts := []interaction.Option{interaction.WithAlerter(alerts)}
	if cfg.KafkaBrokers != "" {
		kw, err := kafka.NewWriter(kafka.Config{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			RequiredAcks: cfg.KafkaAcks,
			Async:        cfg.KafkaAsync,
		})
		if err != nil {
			log.Fatalf("kafka writer: %v", err)
		}
		defer kw.Close()
		opts = append(opts, interaction.WithPublisher(interaction.NewKafkaPublisher(kw)))
	}
	ctrl := interaction.NewController(gw, m, session, opts...)

	reg := surface.NewRegistry(gw, ctrl, cfg.FeedPageSize)
	defer reg.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	surface.NewHandler(reg, gw, session, openResolver(cfg), alerts).Register(mux)

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(mux, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Printf("feed-client listening on %s (api %s, mirror %s)", cfg.AppPort, cfg.APIBaseURL, cfg.MirrorBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Printf("feed-client stopped")
}
