package internal

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/gymscore/internal/auth"
	"github.com/2beens/gymscore/internal/config"
	"github.com/2beens/gymscore/internal/db"
	"github.com/2beens/gymscore/internal/gymscore"
	"github.com/2beens/gymscore/internal/gymscore/analysis"
	gymscoremcp "github.com/2beens/gymscore/internal/gymscore/mcp"
	"github.com/2beens/gymscore/internal/middleware"
	"github.com/2beens/gymscore/internal/telemetry/metrics"
	"github.com/2beens/gymscore/internal/telemetry/tracing"
	"github.com/2beens/gymscore/pkg"
)

// photos arrive base64 encoded in the json body
const maxRequestBodyBytes = 12 << 20

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	store  *OpenedStore

	redisClient *redis.Client
	verifier    *auth.Verifier
	revocations *auth.Revocations

	service   *gymscore.Service
	mcpServer *mcp.Server

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	JWTSecret               string
	AnalysisAPIKey          string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if params.JWTSecret == "" {
		return nil, errors.New("jwt secret not set")
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymscore-backend")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       cfg,
		versionInfo:  params.VersionInfo,
		otelShutdown: otelShutdown,
	}

	s.store, err = OpenStore(ctx, OpenStoreParams{
		Config:           cfg,
		PostgresUser:     params.PostgresUser,
		PostgresPassword: params.PostgresPassword,
		TracingEnabled:   params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, err
	}

	var promCollectors []prometheus.Collector
	if s.store.DBPool != nil {
		promCollectors = append(promCollectors, db.NewPoolCollector(s.store.DBPool, cfg.PostgresDBName))
	}

	s.promRegistry = metrics.SetupPrometheus(promCollectors...)
	s.metricsManager = metrics.NewManager("backend", "gymscore", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	if params.HoneycombTracingEnabled {
		s.redisClient.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	s.revocations = auth.NewRevocations(s.redisClient)
	s.verifier = auth.NewVerifier(auth.Config{
		Secret: params.JWTSecret,
		Issuer: cfg.JWTIssuer,
	}, s.revocations)

	var analyzer analysis.Analyzer
	if params.AnalysisAPIKey != "" {
		analyzer = analysis.NewClient(analysis.ClientParams{
			APIKey:      params.AnalysisAPIKey,
			BaseURL:     cfg.AnalysisBaseURL,
			Model:       cfg.AnalysisModel,
			Timeout:     cfg.AnalysisTimeout(),
			CacheSizeMB: cfg.AnalysisCacheSizeMB,
			HTTPClient: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
		})
	} else {
		log.Warnln("analysis api key not set, physique photo analysis disabled")
	}

	s.service = gymscore.NewService(gymscore.NewServiceParams{
		Store:    s.store.Store,
		Analyzer: analyzer,
		Cache:    gymscore.NewScoreboardCache(s.redisClient, cfg.ScoreboardCacheTTL()),
		Metrics:  s.metricsManager,
	})
	s.mcpServer = gymscoremcp.NewServer(s.service, s.store.DBPool)

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymscore-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "gymscore")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	rateLimited := func(routeName string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(
			reqRateLimiter,
			routeName,
			s.config.AnalysisRateLimit(),
			s.metricsManager,
		)(h)
	}

	gsHandler := gymscore.NewHandler(s.service)
	r.Handle("/gymscore", rateLimited("onboard", gsHandler.HandleOnboard)).Methods("POST", "OPTIONS").Name("onboard")
	r.HandleFunc("/gymscore", gsHandler.HandleEdit).Methods("PUT", "OPTIONS").Name("edit")
	r.HandleFunc("/gymscore/me", gsHandler.HandleGetMine).Methods("GET", "OPTIONS").Name("get-mine")
	r.HandleFunc("/gymscore/share/{userID}", gsHandler.HandleShare).Methods("GET", "OPTIONS").Name("share")
	r.Handle("/gymscore/analyze-photo", rateLimited("analyze-photo", gsHandler.HandleAnalyzePhoto)).Methods("POST", "OPTIONS").Name("analyze-photo")

	authHandler := auth.NewHandler(s.revocations)
	r.HandleFunc("/auth/revoke", authHandler.HandleRevoke).Methods("POST", "OPTIONS").Name("revoke-token")

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
	r.PathPrefix("/mcp").Handler(mcpHandler).Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsOrigins...))
	r.Use(middleware.NewAuthMiddlewareHandler(s.verifier).AuthCheck())
	r.Use(middleware.LimitRequestBody(maxRequestBodyBytes))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.store != nil {
		s.store.Close()
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
