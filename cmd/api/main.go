package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"metaforge-shopify-sync/internal/application"
	"metaforge-shopify-sync/internal/application/webhook_handlers"
	"metaforge-shopify-sync/internal/domain"
	"metaforge-shopify-sync/internal/infrastructure/pubsub"
	"metaforge-shopify-sync/internal/infrastructure/queue"
	"metaforge-shopify-sync/internal/infrastructure/repository"
	shopifyinfra "metaforge-shopify-sync/internal/infrastructure/shopify"
	"metaforge-shopify-sync/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const oauthScopes = "read_products,write_products"

// webhookTopics are the subscriptions registered for every shop at install
// time.
var webhookTopics = []string{
	domain.TopicBulkOperationsFinish,
	domain.TopicProductsCreate,
	domain.TopicProductsUpdate,
	domain.TopicAppUninstalled,
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	apiKey := os.Getenv("SHOPIFY_API_KEY")
	apiSecret := os.Getenv("SHOPIFY_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}

	webhookSecret := os.Getenv("SHOPIFY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		webhookSecret = apiSecret
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(os.Getenv("MONGODB_DATABASE"))

	// Connect to Redis
	redisOpts, err := redislib.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	rdb := redislib.NewClient(redisOpts)
	defer rdb.Close()

	// Initialize repositories
	shopRepo := repository.NewMongoShopRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	ruleRepo := repository.NewMongoMetaRuleRepository(db)
	webhookLogRepo := repository.NewMongoWebhookLogRepository(db)

	// Initialize admin API client and webhook verifier
	adminClient := shopifyinfra.NewClient(apiKey, apiSecret, logger)
	verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	// Initialize job event bus and queue metrics
	jobPubSub := pubsub.NewJobPubSub(logger)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	queueMetrics := queue.NewMetrics(registry)

	// Initialize rule processor and queue
	processorOpts := application.DefaultProcessorOptions()
	if path := os.Getenv("PRODUCT_RULE_PATH"); path != "" {
		processorOpts.ProductPath = application.ProductRulePath(path)
	}
	processor := application.NewRuleProcessor(productRepo, ruleRepo, adminClient, logger, processorOpts)
	jobQueue := queue.NewRedisQueue(rdb, processor, jobPubSub, queueMetrics, logger, queue.DefaultOptions())

	// Initialize application services
	ruleService := application.NewRuleService(shopRepo, ruleRepo, adminClient, jobQueue, logger)
	syncService := application.NewSyncService(productRepo, adminClient, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewBulkOperationHandler(ruleRepo, webhookLogRepo, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(shopRepo, productRepo, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(shopRepo, logger))

	// Start the single queue consumer
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := jobQueue.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Queue consumer stopped")
		}
	}()

	states := newStateStore()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// OAuth routes
	r.Get("/auth/shopify", oauthInitHandler(states, apiKey, appURL, logger))
	r.Get("/auth/callback", oauthCallbackHandler(states, adminClient, shopRepo, syncService, appURL, logger))

	// Webhook endpoint
	r.Post("/webhooks/shopify", webhookHandler(verifier, webhookDispatcher, logger))

	// Rule API, authenticated by shop domain header
	r.Route("/api", func(r chi.Router) {
		r.Use(shopDomainMiddleware)
		r.Post("/rules", createRuleHandler(ruleService, logger))
		r.Get("/rules", listRulesHandler(ruleService, logger))
		r.Get("/jobs/{jobID}", jobStatusHandler(jobQueue))
		r.Get("/rules/{ruleID}/events", ruleEventsHandler(jobPubSub, logger))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// stateStore holds short-lived OAuth CSRF states in memory.
type stateStore struct {
	mu     sync.Mutex
	states map[string]oauthState
}

type oauthState struct {
	shop      string
	expiresAt time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]oauthState)}
}

func (s *stateStore) create(shop string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = oauthState{shop: shop, expiresAt: time.Now().Add(10 * time.Minute)}
	return state, nil
}

// consume validates and removes a state. Each state is single-use.
func (s *stateStore) consume(state, shop string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return entry.shop == shop && time.Now().Before(entry.expiresAt)
}

// oauthInitHandler initiates the OAuth flow
func oauthInitHandler(states *stateStore, apiKey, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		state, err := states.create(shop)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to generate state")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		redirectURI := appURL + "/auth/callback"
		authURL := fmt.Sprintf(
			"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
			shop,
			apiKey,
			url.QueryEscape(oauthScopes),
			url.QueryEscape(redirectURI),
			state,
		)

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the OAuth flow: exchanges the code, upserts
// the shop, registers webhook subscriptions, and kicks off the initial
// catalog sync in the background.
func oauthCallbackHandler(
	states *stateStore,
	client ports.AdminClient,
	shops ports.ShopRepository,
	syncService *application.SyncService,
	appURL string,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := r.URL.Query().Get("shop")
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if shop == "" || code == "" || state == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		if !states.consume(state, shop) {
			http.Error(w, "Invalid state", http.StatusUnauthorized)
			return
		}

		token, err := client.ExchangeToken(ctx, shop, code)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Token exchange failed")
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		session := domain.AdminSession{ShopDomain: shop, AccessToken: token}
		info, err := client.GetShopInfo(ctx, session)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to fetch shop info")
			http.Error(w, "Failed to fetch shop info", http.StatusBadGateway)
			return
		}

		stored, err := shops.Upsert(ctx, &domain.Shop{
			Domain:      info.Domain,
			Name:        info.Name,
			Email:       info.Email,
			AccessToken: token,
			Plan:        info.Plan,
			Currency:    info.Currency,
			IsActive:    true,
		})
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to store shop")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		callbackURL := appURL + "/webhooks/shopify"
		for _, topic := range webhookTopics {
			if err := client.CreateWebhookSubscription(ctx, session, topic, callbackURL); err != nil {
				logger.Warn().Err(err).Str("shop", shop).Str("topic", topic).Msg("Failed to register webhook subscription")
			}
		}

		go func() {
			syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := syncService.SyncCatalog(syncCtx, stored); err != nil {
				logger.Error().Err(err).Str("shop", stored.Domain).Msg("Initial catalog sync failed")
			}
		}()

		logger.Info().Str("shop", stored.Domain).Msg("Shop installed")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "installed",
			"shop":   stored.Domain,
		})
	}
}

// webhookHandler verifies and dispatches inbound platform notifications.
// Handler failures return 500 so the platform redelivers.
func webhookHandler(verifier *shopifyinfra.WebhookVerifier, dispatcher *application.WebhookDispatcher, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}

		if err := verifier.Verify(body, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
			logger.Warn().Err(err).Msg("Webhook signature verification failed")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		event := &domain.WebhookEvent{
			Topic:    r.Header.Get("X-Shopify-Topic"),
			Shop:     r.Header.Get("X-Shopify-Shop-Domain"),
			Payload:  body,
			Verified: true,
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().Err(err).Str("topic", event.Topic).Msg("Webhook dispatch failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// shopDomainMiddleware requires the X-Shop-Domain header and threads it
// through the request context.
func shopDomainMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopDomain := r.Header.Get("X-Shop-Domain")
		if shopDomain == "" {
			http.Error(w, "X-Shop-Domain header is required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(domain.WithShopDomain(r.Context(), shopDomain)))
	})
}

func createRuleHandler(rules *application.RuleService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input application.CreateRuleInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		rule, err := rules.CreateRule(r.Context(), input)
		if err != nil {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				http.Error(w, notFound.Error(), http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Msg("Failed to create rule")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(rule)
	}
}

func listRulesHandler(rules *application.RuleService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rules.ListRules(r.Context())
		if err != nil {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				http.Error(w, notFound.Error(), http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Msg("Failed to list rules")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

// ruleEventsHandler streams job lifecycle events for one rule as
// server-sent events until the client disconnects.
func ruleEventsHandler(events *pubsub.JobPubSub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		ruleID := chi.URLParam(r, "ruleID")
		channel := events.Subscribe(r.Context(), &pubsub.JobEventFilter{RuleID: ruleID})
		defer events.Unsubscribe(channel.ID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-channel.Events:
				if !open {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode job event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}

func jobStatusHandler(q *queue.RedisQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := q.Status(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if status == nil {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
