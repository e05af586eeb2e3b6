package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/config"
	authgin "github.com/relaychat/authorizer/integrations/gin"
	"github.com/relaychat/authorizer/jwks"
	"github.com/relaychat/authorizer/relay"
	"github.com/relaychat/authorizer/signup"
	"github.com/relaychat/authorizer/validator"
)

// app holds the wired components of the server.
type app struct {
	logger     *zap.Logger
	gatherer   prometheus.Gatherer
	keys       *jwks.KeyCache
	authorizer *authorizer.Authorizer
	gate       *signup.Gate

	hub         *relay.Hub
	broadcaster *relay.Broadcaster
	messages    <-chan relay.Message
	subscribe   func(ctx context.Context, out chan<- relay.Message) error
	redis       *redis.Client
}

func newApp(cfg *config.Config, zapLogger *zap.Logger, registry *prometheus.Registry) (*app, error) {
	logger := authorizer.NewZapLogger(zapLogger)
	metrics := authorizer.NewPrometheusMetrics(registry)

	fetcherOpts := []jwks.FetcherOption{
		jwks.WithIssuerURL(cfg.IssuerURL()),
		jwks.WithFetchTimeout(cfg.JWKSFetchTimeout),
	}
	if u := cfg.KeySetURL(); u != nil {
		fetcherOpts = append(fetcherOpts, jwks.WithCustomJWKSURI(u))
	}
	fetcher, err := jwks.NewHTTPFetcher(fetcherOpts...)
	if err != nil {
		return nil, err
	}

	keys, err := jwks.NewKeyCache(fetcher,
		jwks.WithTTL(cfg.JWKSTTL),
		jwks.WithLogger(logger),
		jwks.WithObserver(authorizer.KeySetObserver(metrics)),
	)
	if err != nil {
		return nil, err
	}

	resolver, err := jwks.NewResolver(keys, jwks.WithResolverLogger(logger))
	if err != nil {
		return nil, err
	}

	verifier, err := validator.New(
		validator.WithIssuer(cfg.CognitoURL),
		validator.WithClientID(cfg.ClientID),
	)
	if err != nil {
		return nil, err
	}

	authz, err := authorizer.New(
		authorizer.WithKeyResolver(resolver),
		authorizer.WithTokenVerifier(verifier),
		authorizer.WithTokenExtractor(authorizer.MultiTokenExtractor(
			authorizer.QueryParameterTokenExtractor(cfg.TokenQueryParam),
			authorizer.AuthHeaderTokenExtractor,
		)),
		authorizer.WithLogger(logger),
		authorizer.WithMetrics(metrics),
		authorizer.WithTracer(authorizer.NewOpenTelemetryTracer(otel.Tracer("github.com/relaychat/authorizer"))),
	)
	if err != nil {
		return nil, err
	}

	gate, err := signup.NewGate(
		signup.WithAllowedSuffix(cfg.SignupAllowedSuffix),
		signup.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		logger:     zapLogger,
		gatherer:   registry,
		keys:       keys,
		authorizer: authz,
		gate:       gate,
	}

	if err := a.wireRelay(cfg, logger); err != nil {
		return nil, err
	}

	return a, nil
}

// wireRelay uses Redis for the relay when REDIS_ADDR is set, so that
// several instances share connections and messages. Otherwise everything
// stays in process.
func (a *app) wireRelay(cfg *config.Config, logger authorizer.Logger) error {
	var (
		registry  relay.Registry
		store     relay.MessageStore
		publisher relay.Publisher
	)

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		registry = relay.NewRedisRegistry(a.redis)
		store = relay.NewRedisMessageStore(a.redis)
		redisPublisher := relay.NewRedisPublisher(a.redis)
		publisher = redisPublisher
		a.subscribe = redisPublisher.Subscribe
	} else {
		registry = relay.NewMemoryRegistry()
		store = relay.NewMemoryMessageStore()
		channelPublisher := relay.NewChannelPublisher(64)
		publisher = channelPublisher
		a.messages = channelPublisher.Messages()
	}

	ingestor, err := relay.NewIngestor(registry, store, publisher, relay.WithIngestorLogger(logger))
	if err != nil {
		return err
	}

	a.hub = relay.NewHub(registry, ingestor, relay.WithHubLogger(logger))
	a.broadcaster, err = relay.NewBroadcaster(registry, a.hub, logger)
	return err
}

// runBroadcaster delivers published messages until ctx is done.
func (a *app) runBroadcaster(ctx context.Context) {
	messages := a.messages
	if a.subscribe != nil {
		ch := make(chan relay.Message, 64)
		go func() {
			if err := a.subscribe(ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("subscription ended", zap.Error(err))
			}
		}()
		messages = ch
	}

	if err := a.broadcaster.Run(ctx, messages); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("broadcaster stopped", zap.Error(err))
	}
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/authorize", a.handleAuthorize)
	router.POST("/hooks/pre-signup", a.handlePreSignup)
	router.GET("/healthz", a.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))

	router.GET("/ws", authgin.NewMiddleware(a.authorizer), a.handleWebSocket)

	return router
}

// handleAuthorize answers an API Gateway REQUEST authorizer event with an
// IAM policy. It always answers 200: a body that does not decode is
// authorized as an empty request and denied.
func (a *app) handleAuthorize(c *gin.Context) {
	var req authorizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.Debug("undecodable authorization request", zap.Error(err))
		req = authorizer.Request{}
	}

	d := a.authorizer.Authorize(c.Request.Context(), &req)
	c.JSON(http.StatusOK, d.Policy())
}

func (a *app) handlePreSignup(c *gin.Context) {
	var event signup.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid event"})
		return
	}

	accepted, err := a.gate.Evaluate(&event)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, accepted)
}

func (a *app) handleHealth(c *gin.Context) {
	stats := a.keys.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"keys":   stats.Keys,
		"stale":  stats.Stale,
	})
}

func (a *app) handleWebSocket(c *gin.Context) {
	principal := authorizer.DefaultPrincipal
	if claims, err := authgin.GetClaims(c, ""); err == nil && claims.Subject != "" {
		principal = claims.Subject
	}
	a.hub.ServeWS(c.Writer, c.Request, principal)
}
