package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"spokesbot/internal/ai"
	"spokesbot/internal/app"
	"spokesbot/internal/cache"
	"spokesbot/internal/chunker"
	"spokesbot/internal/classify"
	"spokesbot/internal/config"
	"spokesbot/internal/corpus"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
	"spokesbot/internal/platform/mysql"
	"spokesbot/internal/platform/rabbitmq"
	"spokesbot/internal/platform/redis"
	"spokesbot/internal/repository"
	"spokesbot/internal/transport/http/handler"
	"spokesbot/internal/transport/http/middleware"
	"spokesbot/internal/worker"
)

// App holds every initialized component. MySQL, Redis and RabbitMQ are
// optional: if one cannot be reached at startup the app runs without the
// embedding cache, the answer cache or the query audit trail. The LLM
// endpoint and the corpus directory are required.
type App struct {
	Config  *config.Config
	Answers *app.AnswerService
	Ingest  *app.IngestService
	Limiter *middleware.RateLimiter

	Handlers struct {
		Chat   *handler.ChatHandler
		Admin  *handler.AdminHandler
		Health *handler.HealthHandler
	}

	db        *gorm.DB
	redis     *redisv9.Client
	amqp      *amqp.Connection
	logWorker *worker.QueryLogWorker

	cancelWorker context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg}

	a.connectBackends(ctx, cfg)

	rules, docRules := classifierFromConfig(cfg.Classifier)
	classifier := classify.NewClassifier(rules)

	chk, err := chunker.New(chunker.Config{
		WindowSize: cfg.Corpus.ChunkSize,
		Overlap:    cfg.Corpus.ChunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("build chunker failed: %w", err)
	}

	loader := corpus.NewLoader(cfg.Corpus.DataDir, docRules, model.Label(cfg.Classifier.DefaultLabel))

	client := ai.NewClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})

	holder := index.NewHolder()

	var store app.EmbeddingStore
	var logRepo *repository.QueryLogRepository
	if a.db != nil {
		store = repository.NewChunkEmbeddingRepository(a.db)
		logRepo = repository.NewQueryLogRepository(a.db)
	}

	a.Ingest = app.NewIngestService(app.IngestDeps{
		Source:         loader,
		Chunker:        chk,
		Embedder:       client,
		Holder:         holder,
		Store:          store,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})

	var answerCache app.AnswerCache
	if a.redis != nil {
		answerCache = cache.NewAnswerCache(a.redis, time.Duration(cfg.Redis.AnswerTTLSeconds)*time.Second)
	}

	var publisher app.QueryLogPublisher
	if a.amqp != nil {
		publisher = rabbitmq.NewQueryLogPublisher(a.amqp, cfg.RabbitMQ.QueryLogQueue)
		if logRepo != nil {
			a.logWorker = worker.NewQueryLogWorker(a.amqp, logRepo, cfg.RabbitMQ.QueryLogQueue)
		}
	}

	a.Answers = app.NewAnswerService(app.AnswerDeps{
		Classifier: classifier,
		Holder:     holder,
		Embedder:   client,
		Generator:  client,
		Prompts: app.PromptConfig{
			PartyName:      cfg.Party.Name,
			RefusalMessage: cfg.Party.RefusalMessage,
		},
		TopK:          cfg.Corpus.TopK,
		CollabTimeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		Cache:         answerCache,
		Publisher:     publisher,
	})

	a.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	a.Handlers.Chat = handler.NewChatHandler(a.Answers, cfg.Party.UnavailableMessage)
	a.Handlers.Admin = handler.NewAdminHandler(a.Ingest)
	a.Handlers.Health = handler.NewHealthHandler(a.db, a.redis, a.amqp)

	if a.logWorker != nil {
		workerCtx, cancel := context.WithCancel(context.Background())
		a.cancelWorker = cancel
		if err := a.logWorker.Start(workerCtx); err != nil {
			log.Printf("query log worker start failed: %v", err)
			cancel()
			a.cancelWorker = nil
			a.logWorker = nil
		}
	}

	result, err := a.Ingest.Rebuild(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initial index build failed: %w", err)
	}
	log.Printf("index ready: %d documents, %d chunks, dimension %d, took %dms",
		result.Documents, result.Chunks, result.Dimension, result.TookMs)

	return a, nil
}

// connectBackends attempts each backing service and logs a warning for
// every one it has to run without.
func (a *App) connectBackends(ctx context.Context, cfg *config.Config) {
	db, err := mysql.New(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Printf("mysql unavailable, embedding cache and query audit disabled: %v", err)
	} else {
		if err := db.AutoMigrate(&model.ChunkEmbedding{}, &model.QueryLog{}); err != nil {
			log.Printf("mysql migrate failed, embedding cache and query audit disabled: %v", err)
		} else {
			a.db = db
		}
	}

	rdb, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("redis unavailable, answer cache disabled: %v", err)
	} else {
		a.redis = rdb
	}

	conn, err := rabbitmq.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		log.Printf("rabbitmq unavailable, query audit trail disabled: %v", err)
	} else {
		a.amqp = conn
	}
}

// classifierFromConfig turns the declared label table into classifier rules
// and document naming rules. Order in the config file is precedence order.
func classifierFromConfig(cc config.ClassifierConfig) (classify.Rules, []model.DocLabelRule) {
	rules := classify.Rules{
		Comparative: cc.Comparative,
		Default:     model.Label(cc.DefaultLabel),
	}
	var docRules []model.DocLabelRule
	for _, lc := range cc.Labels {
		rules.Labels = append(rules.Labels, classify.LabelRule{
			Label:    model.Label(lc.Name),
			Keywords: lc.Keywords,
		})
		for _, frag := range lc.DocumentNames {
			docRules = append(docRules, model.DocLabelRule{
				NameContains: frag,
				Label:        model.Label(lc.Name),
			})
		}
	}
	return rules, docRules
}

// Close releases the worker and every open connection.
func (a *App) Close() {
	if a.cancelWorker != nil {
		a.cancelWorker()
	}
	if a.logWorker != nil {
		a.logWorker.Close()
	}
	if a.amqp != nil {
		_ = a.amqp.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
