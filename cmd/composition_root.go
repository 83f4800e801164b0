package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpin "pharmadelivery/internal/adapters/in/http"
	"pharmadelivery/internal/adapters/out/convstore"
	"pharmadelivery/internal/adapters/out/dedupe"
	"pharmadelivery/internal/adapters/out/llm"
	"pharmadelivery/internal/adapters/out/memory"
	"pharmadelivery/internal/adapters/out/postgres"
	"pharmadelivery/internal/adapters/out/recorder"
	"pharmadelivery/internal/adapters/out/whatsapp"
	"pharmadelivery/internal/core/application/dialogue"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/usecases/queries"
	"pharmadelivery/internal/core/application/workflow"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/jobs"
	"pharmadelivery/internal/pkg/keyedmutex"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	conversationsCollection = "conversations"
	// conversationLockTTL bounds how long a crashed replica can block a user.
	conversationLockTTL = 30 * time.Second
)

// CompositionRoot owns every long-lived component. Close releases the
// external connections it opened.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	uowFactory ports.UnitOfWorkFactory
	reader     ports.OrderReader
	handlers   commands.Handlers

	redis     redis.UniversalClient
	convStore ports.ConversationStore
	convLocks []keyedmutex.Option
	dedupe    ports.EventDeduplicator
	messenger ports.Messenger

	conversations *workflow.Conversations
	couriers      *workflow.CourierCoordinator
	prescriptions *workflow.PrescriptionCoordinator
	dispatcher    *dialogue.Dispatcher

	Server *httpin.Server
	Router *echo.Echo
	Jobs   *jobs.JobManager

	closers []func(context.Context) error
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{cfg: cfg, logger: logger}
	steps := []func(context.Context) error{
		c.openStore,
		c.openConversationStore,
		c.openDedupe,
		c.openMessenger,
		c.buildWorkflow,
		c.buildHTTP,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, errors.Join(err, c.Close(context.WithoutCancel(ctx)))
		}
	}
	c.buildJobs()
	return c, nil
}

func (c *CompositionRoot) openStore(context.Context) error {
	switch c.cfg.StoreBackend {
	case BackendPostgres:
		db, err := postgres.Open(c.cfg.DSN(), c.logger.With("component", "gorm"))
		if err != nil {
			return err
		}
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func(context.Context) error { return sqlDB.Close() })

		factory := postgres.NewGormUnitOfWorkFactory(db)
		c.uowFactory = factory
		c.reader = factory.Reader()
	default:
		factory := memory.NewUnitOfWorkFactory(memory.NewStore())
		c.uowFactory = factory
		c.reader = factory.Reader()
	}
	c.handlers = commands.NewHandlers(c.uowFactory)
	return nil
}

func (c *CompositionRoot) openConversationStore(ctx context.Context) error {
	switch c.cfg.ConversationBackend {
	case BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		c.closers = append(c.closers, client.Disconnect)
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("ping mongo: %w", err)
		}
		store := convstore.NewMongoStore(client.Database(c.cfg.MongoDatabase).Collection(conversationsCollection))
		if err := store.EnsureIndexes(ctx, c.cfg.ConversationIdle); err != nil {
			return err
		}
		c.convStore = store
	case BackendRedis:
		client, err := c.redisClient(ctx)
		if err != nil {
			return err
		}
		c.convStore = convstore.NewRedisStore(client, c.cfg.ConversationIdle)
		c.convLocks = append(c.convLocks, keyedmutex.WithLocker(convstore.NewRedisLocker(client, conversationLockTTL)))
	default:
		c.convStore = convstore.NewMemoryStore()
	}
	return nil
}

func (c *CompositionRoot) openDedupe(ctx context.Context) error {
	switch c.cfg.DedupeBackend {
	case BackendRedis:
		client, err := c.redisClient(ctx)
		if err != nil {
			return err
		}
		c.dedupe = dedupe.NewRedis(client, c.cfg.DedupeTTL)
	default:
		c.dedupe = dedupe.NewMemory(c.cfg.DedupeTTL, time.Now)
	}
	return nil
}

// redisClient is shared by the conversation store and the dedupe filter.
func (c *CompositionRoot) redisClient(ctx context.Context) (redis.UniversalClient, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	opts, err := redis.ParseURL(c.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	c.redis = client
	return client, nil
}

func (c *CompositionRoot) openMessenger(context.Context) error {
	if c.cfg.Messenger != MessengerWhatsApp {
		c.messenger = recorder.NewMessenger(c.logger)
		return nil
	}
	client, err := whatsapp.NewClient(whatsapp.Config{
		BaseURL:       c.cfg.WhatsAppBaseURL,
		PhoneNumberID: c.cfg.WhatsAppPhoneNumberID,
		AccessToken:   c.cfg.WhatsAppAccessToken,
	}, c.logger)
	if err != nil {
		return err
	}
	c.messenger = client
	return nil
}

// advisors returns the language-model collaborators, or nils when no API key
// is configured. Text recognition needs the WhatsApp media endpoint.
func (c *CompositionRoot) advisors() (ports.Advisor, ports.TextRecognizer, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return nil, nil, nil
	}
	llmCfg := llm.Config{APIKey: c.cfg.OpenAIAPIKey, BaseURL: c.cfg.OpenAIBaseURL, Model: c.cfg.OpenAIModel}

	advisor, err := llm.NewAdvisor(llmCfg, c.logger)
	if err != nil {
		return nil, nil, err
	}
	media, ok := c.messenger.(llm.MediaSource)
	if !ok {
		return advisor, nil, nil
	}
	recognizer, err := llm.NewRecognizer(llmCfg, media, c.logger)
	if err != nil {
		return nil, nil, err
	}
	return advisor, recognizer, nil
}

func (c *CompositionRoot) buildWorkflow(context.Context) error {
	location, err := time.LoadLocation(c.cfg.TimeZone)
	if err != nil {
		return err
	}
	fence, err := c.cfg.Geofence.toKernel()
	if err != nil {
		return err
	}
	fees, err := services.NewFeeCalculator(c.cfg.DayFee, c.cfg.NightFee, location, fence)
	if err != nil {
		return err
	}
	advisor, recognizer, err := c.advisors()
	if err != nil {
		return err
	}

	repos := c.uowFactory.Create()
	c.conversations = workflow.NewConversations(c.convStore, keyedmutex.New(c.convLocks...), time.Now)

	cart := workflow.NewCartManager(repos.CatalogRepository(), fees, c.handlers.Checkout, time.Now, c.logger)
	c.couriers = workflow.NewCourierCoordinator(workflow.CourierHandlers{
		Assign:  c.handlers.AssignCourier,
		Respond: c.handlers.RespondToOffer,
		Expire:  c.handlers.ExpireOffer,
		Advance: c.handlers.AdvanceDelivery,
	}, repos.OrderRepository(), repos.CatalogRepository(), c.messenger, workflow.CourierConfig{
		OfferWindow:    c.cfg.OfferWindow,
		CandidateLimit: c.cfg.CandidateLimit,
		SupportPhone:   c.cfg.SupportPhone,
	}, time.Now, c.logger)

	c.prescriptions = workflow.NewPrescriptionCoordinator(workflow.PrescriptionDeps{
		Handlers: workflow.PrescriptionHandlers{
			Submit: c.handlers.SubmitPrescription,
			Review: c.handlers.ReviewPrescription,
			Expire: c.handlers.ExpireReview,
		},
		Orders:        repos.OrderRepository(),
		Catalog:       repos.CatalogRepository(),
		Messenger:     c.messenger,
		Recognizer:    recognizer,
		Conversations: c.conversations,
		Cart:          cart,
		Couriers:      c.couriers,
		ReviewWindow:  c.cfg.ReviewWindow,
		Now:           time.Now,
		Logger:        c.logger,
	})

	c.dispatcher = dialogue.NewDispatcher(dialogue.Deps{
		Conversations: c.conversations,
		Catalog:       repos.CatalogRepository(),
		Cart:          cart,
		Prescriptions: c.prescriptions,
		Couriers:      c.couriers,
		Appointments:  c.handlers.BookAppointment,
		Messenger:     c.messenger,
		Advisor:       advisor,
		Dedupe:        c.dedupe,
		Now:           time.Now,
		Logger:        c.logger,
	})
	return nil
}

func (c *CompositionRoot) buildHTTP(context.Context) error {
	server, err := httpin.NewServer(httpin.ServerDeps{
		Dispatcher:    c.dispatcher,
		Conversations: c.conversations,
		Assigner:      c.couriers,
		GetOrders:     c.CreateGetOrdersQueryHandler(),
		GetOrder:      c.CreateGetOrderQueryHandler(),
		Config: httpin.Config{
			VerifyToken:     c.cfg.WhatsAppVerifyToken,
			DispatchTimeout: c.cfg.DispatchTimeout,
			Limiter: httpin.LimiterConfig{
				PerMinute: c.cfg.RateLimitPerMinute,
				Burst:     c.cfg.RateLimitBurst,
			},
		},
		Logger: c.logger,
	})
	if err != nil {
		return err
	}
	c.Server = server
	c.Router = httpin.NewRouter(server, httpin.RouterConfig{
		AdminSecret: []byte(c.cfg.AdminJWTSecret),
		CORSOrigins: c.cfg.AdminCORSOrigins,
	}, c.logger)
	return nil
}

func (c *CompositionRoot) buildJobs() {
	list := []*jobs.Job{
		jobs.NewCourierSweepJob(c.couriers, c.cfg.CourierSweepEvery, c.logger),
		jobs.NewPrescriptionExpiryJob(c.prescriptions, c.cfg.PrescriptionSweepEvery, c.logger),
		jobs.NewConversationEvictionJob(c.convStore, c.cfg.ConversationIdle, c.cfg.EvictionEvery, time.Now, c.logger),
	}
	if pruner, ok := c.dedupe.(jobs.Pruner); ok {
		list = append(list, jobs.NewDedupePruneJob(pruner, c.cfg.DedupePruneEvery, c.logger))
	}
	c.Jobs = jobs.NewJobManager(list...)
}

func (c *CompositionRoot) CreateGetOrdersQueryHandler() queries.GetOrdersQueryHandler {
	return queries.NewGetOrdersQueryHandler(c.reader)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.reader)
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() commands.CreateCourierCommandHandler {
	return c.handlers.CreateCourier
}

// Seed loads the YAML seed file into the store.
func (c *CompositionRoot) Seed(ctx context.Context, path string) (SeedResult, error) {
	seed, err := LoadSeedFile(path)
	if err != nil {
		return SeedResult{}, err
	}
	repos := c.uowFactory.Create()
	return ApplySeed(ctx, seed, repos.CatalogRepository(), repos.CourierRepository(), c.CreateCreateCourierCommandHandler())
}

// Shutdown stops the offer timers and then closes connections in reverse
// opening order.
func (c *CompositionRoot) Shutdown(ctx context.Context) error {
	if c.couriers != nil {
		c.couriers.Close()
	}
	return c.Close(ctx)
}

func (c *CompositionRoot) Close(ctx context.Context) error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i](ctx))
	}
	c.closers = nil
	return err
}
