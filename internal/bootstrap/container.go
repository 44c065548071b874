package bootstrap

import (
	"context"
	"log"

	"ai-docview-be/internal/config"
	"ai-docview-be/internal/controller"
	"ai-docview-be/internal/handler"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/internal/repository/memory"
	"ai-docview-be/internal/repository/unitofwork"
	"ai-docview-be/internal/service"
	"ai-docview-be/internal/websocket"
	"ai-docview-be/pkg/cache"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/embedding"
	"ai-docview-be/pkg/events"
	"ai-docview-be/pkg/extract"
	"ai-docview-be/pkg/llm/factory"
	"ai-docview-be/pkg/processor"
	"ai-docview-be/pkg/recommend"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"

	pktNats "ai-docview-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	DispatchService service.IDispatchService
	EventRelay      *service.ViewEventRelay // nil without NATS

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	Logger    logger.ILogger
	JwtSecret string

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	c := &Container{Logger: sysLogger, JwtSecret: cfg.Keys.JWTSecret}

	// 1. Storage: Postgres when configured, process memory otherwise
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] DB_CONNECTION_STRING not set, using in-memory document store")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	// 2. Redis for result cache, job status and hub fan-out
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	var resultCache cache.Store
	var tracker status.Tracker
	if rdb != nil {
		resultCache = cache.NewRedisStore(rdb, cfg.View.CacheTTL)
		tracker = status.NewRedisTracker(rdb, cfg.View.StatusTTL)
	} else {
		resultCache = cache.NewMemoryStore(cfg.View.CacheTTL)
		tracker = status.NewMemoryTracker(cfg.View.StatusTTL)
	}

	// 3. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.HubLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	c.WebSocketHub = wsHub

	// 4. Event bus: NATS JetStream when configured, the hub directly otherwise
	var eventPublisher events.Publisher = wsHub
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		nc, js, err := pktNats.Connect(context.Background(), cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS: %v", err)
		} else {
			eventPublisher = pktNats.NewPublisher(js)
			natsSub = pktNats.NewSubscriber(js, sysLogger)
			c.closers = append(c.closers, func() {
				natsSub.Close()
				nc.Close()
			})
		}
	}

	// 5. Model provider
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Keys.HuggingFace,
		Timeout:  cfg.Ai.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 6. Views, registered in fixed order so detection ties stay stable
	calculator := confidence.NewCalculator(confidenceConfig(cfg.Confidence), sysLogger)
	registry := view.NewRegistry(sysLogger)
	qaProcessor := processor.NewQAProcessor(llmProvider, calculator, sysLogger, cfg.Ai.BatchRunes)
	systemProcessor := processor.NewSystemProcessor(llmProvider, calculator, sysLogger)
	learningProcessor := processor.NewLearningProcessor(llmProvider, calculator, sysLogger)
	if cfg.Ai.EmbeddingModel != "" {
		embedder := embedding.NewOllamaEmbedder(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel, cfg.Ai.RequestTimeout)
		qaProcessor.UseEmbedder(embedder)
		systemProcessor.UseEmbedder(embedder)
		learningProcessor.UseEmbedder(embedder)
		log.Printf("[INFO] Embedding similarity enabled (%s)", cfg.Ai.EmbeddingModel)
	}
	registry.Register(view.KindQA, qaProcessor, "interview")
	registry.Register(view.KindSystem, systemProcessor, "architecture")
	registry.Register(view.KindLearning, learningProcessor, "tutorial")

	detector := detect.NewDetector(sysLogger)
	var aiRecommender recommend.AIRecommender
	if cfg.Ai.UseAIRecommender {
		aiRecommender = recommend.NewLLMRecommender(llmProvider, registry.Views())
	}
	recommender := recommend.NewRecommender(detector, registry, aiRecommender, recommend.Config{
		InclusionThreshold: cfg.View.InclusionThreshold,
		ConfidenceFloor:    cfg.View.ConfidenceFloor,
		DefaultView:        view.Kind(cfg.View.DefaultView),
	}, sysLogger)

	preprocessor := extract.NewPreprocessor(extract.PreprocessorConfig{
		MaxSegmentRunes: cfg.View.MaxSegment,
		SegmentTimeout:  cfg.View.SegmentTimeout,
	}, sysLogger, extract.StripMarkup)

	// 7. Dispatch queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publisherService := service.NewPublisherService(cfg.View.DispatchTopic, cfg.View.Workers, pubSub)

	// 8. Services
	documentService := service.NewDocumentService(
		uowFactory,
		registry,
		detector,
		recommender,
		calculator,
		extract.NewPlainTextExtractor(),
		preprocessor,
		publisherService,
		tracker,
		resultCache,
		eventPublisher,
		wsHub,
		service.DocumentServiceConfig{
			PrimaryTimeout:  cfg.View.PrimaryTimeout,
			DocumentTimeout: cfg.View.DocumentTimeout,
			DispatchDelay:   cfg.View.DispatchDelay,
		},
		sysLogger,
	)

	dispatchCfg := service.DefaultDispatchConfig()
	dispatchCfg.Shards = cfg.View.Workers
	dispatchCfg.SecondaryTimeout = cfg.View.SecondaryTimeout
	c.DispatchService = service.NewDispatchService(pubSub, cfg.View.DispatchTopic, documentService, registry, tracker, dispatchCfg, sysLogger)

	if natsSub != nil {
		c.EventRelay = service.NewViewEventRelay(natsSub, wsHub, sysLogger)
	}

	// 9. Transport
	c.DocumentController = controller.NewDocumentController(documentService)
	c.ProgressHandler = handler.NewProgressHandler(documentService, wsHub, cfg.Keys.JWTSecret, wsLogger)

	return c
}

// Start launches the background workers. They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.DispatchService.Consume(ctx); err != nil {
		return err
	}
	if c.EventRelay != nil {
		if err := c.EventRelay.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func confidenceConfig(cfg config.ConfidenceConfig) confidence.Config {
	out := confidence.DefaultConfig()
	out.BaseWeight = cfg.BaseWeight
	out.RetrievalWeight = cfg.RetrievalWeight
	out.SimilarityWeight = cfg.SimilarityWeight
	out.ConcentrationWeight = cfg.ConcentrationWeight
	out.ConsistencyWeight = cfg.ConsistencyWeight
	out.HighThreshold = cfg.HighThreshold
	out.MediumThreshold = cfg.MediumThreshold
	out.OutOfScopeRatio = cfg.OutOfScopeRatio
	out.OutOfScopePenalty = cfg.OutOfScopePenalty
	out.NegationDensity = cfg.NegationDensity
	out.NegationPenalty = cfg.NegationPenalty
	return out
}
