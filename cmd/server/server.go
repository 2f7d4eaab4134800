package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"ruleout-server/internal/config"
	"ruleout-server/internal/domain/blog"
	"ruleout-server/internal/domain/careers"
	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/guest"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/domain/recording"
	"ruleout-server/internal/domain/user"
	"ruleout-server/internal/infrastructure/auth"
	"ruleout-server/internal/infrastructure/cache"
	"ruleout-server/internal/infrastructure/database"
	"ruleout-server/internal/infrastructure/database/repository/blogrepo"
	"ruleout-server/internal/infrastructure/database/repository/conversationrepo"
	"ruleout-server/internal/infrastructure/database/repository/projectrepo"
	"ruleout-server/internal/infrastructure/database/repository/recordingrepo"
	"ruleout-server/internal/infrastructure/database/repository/userrepo"
	"ruleout-server/internal/infrastructure/emailjs"
	"ruleout-server/internal/infrastructure/logger"
	"ruleout-server/internal/infrastructure/metrics"
	"ruleout-server/internal/infrastructure/qaclient"
	"ruleout-server/internal/infrastructure/storage"
	"ruleout-server/internal/infrastructure/titlegen"
	"ruleout-server/internal/infrastructure/transcription"
	"ruleout-server/internal/interfaces/httpserver"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
	"ruleout-server/pkg/observability"
	"ruleout-server/pkg/observability/worker"
)

// @title Ruleout API
// @version 1.0
// @description Backend for the Ruleout veterinary assistant: streaming chat, conversation history, projects, recordings and careers.
// @contact.name Ruleout Team
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Init(ctx, newObservabilityConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(newDatabaseConfig(cfg), log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rawStore, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize object storage")
	}
	store := storage.Instrument(rawStore, metrics.RecordStorageOp)

	checks := []httpserver.ReadinessCheck{
		{Name: "database", Check: func(context.Context) error { return database.Ping(db) }},
		{Name: "storage", Check: store.Health},
	}

	var (
		counter guest.Counter
		locker  user.Locker
	)
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer redisCache.Close()
		counter = redisCache.Counter(cfg.GuestWindow)
		locker = redisCache.Locker()
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: redisCache.HealthCheck})
	} else {
		memoryCounter, err := cache.NewMemoryCounter(cfg.GuestCacheSize, cfg.GuestWindow)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize guest counter")
		}
		counter = memoryCounter
		log.Warn().Msg("REDIS_URL not set, guest quotas are kept in memory")
	}

	var validator middlewares.TokenValidator
	if cfg.AuthEnabled {
		firebase, err := auth.NewFirebaseValidator(ctx, cfg.AuthJWKSURL, cfg.FirebaseProjectID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize auth validator")
		}
		defer firebase.Close()
		validator = firebase
	} else {
		log.Warn().Msg("authentication disabled, X-Debug-User selects the caller")
	}

	jobs, err := worker.NewInstrumenter(cfg.ServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize job instrumentation")
	}

	projectRepository := projectrepo.NewProjectGormRepository(db)
	conversationService := conversation.NewService(conversationrepo.NewConversationGormRepository(db), projectRepository, log)
	projectService := project.NewService(projectRepository, conversationService, log)
	userService := user.NewService(userrepo.NewUserGormRepository(db), locker, log)
	blogService := blog.NewService(blogrepo.NewBlogGormRepository(db), log)

	guestLimiter := guest.NewLimiter(counter, cfg.GuestQueryLimit, log, guest.WithRejectHook(metrics.RecordGuestRejection))

	chatService := chat.NewService(
		qaclient.NewClient(cfg.QABaseURL, cfg.UpstreamTimeout, log),
		conversationService,
		guestLimiter,
		newTitler(cfg, log),
		chat.NewRegistry(),
		chat.Config{HistoryWindow: cfg.HistoryWindow},
		log,
		chat.WithObserver(metrics.ChatObserver{}),
		chat.WithRedactor(telemetry.Sanitizer),
	)

	recordingService := recording.NewService(
		recordingrepo.NewRecordingGormRepository(db),
		store,
		transcription.NewClient(cfg.TranscribeBaseURL, cfg.UpstreamTimeout, metrics.RecordTranscription, log),
		log,
	)

	careersService := careers.NewService(
		store,
		emailjs.NewClient(emailjs.Config{
			BaseURL:    cfg.EmailJSBaseURL,
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
			Timeout:    cfg.UpstreamTimeout,
		}, log),
		telemetry.Sanitizer,
		careers.Config{ToEmail: cfg.CareersToEmail},
		log,
	)

	services := handlers.Services{
		Chat:          chatService,
		Conversations: conversationService,
		Projects:      projectService,
		Recordings:    recordingService,
		Users:         userService,
		Guest:         guestLimiter,
		Blog:          blogService,
		Careers:       careersService,
		Jobs:          jobs,
	}
	if cfg.IsLocalStorage() {
		services.Files = store
	}

	authn := middlewares.NewAuthenticator(validator, cfg.AuthEnabled, log)
	httpServer := httpserver.New(cfg, log, handlers.NewProvider(services, log), authn, checks)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newObservabilityConfig(cfg *config.Config) observability.Config {
	obs := observability.DefaultConfig(cfg.ServiceName)
	obs.Environment = cfg.Environment
	obs.TracingEnabled = cfg.EnableTracing
	obs.MetricsEnabled = cfg.EnableTracing
	obs.OTLPEndpoint = cfg.OTLPEndpoint
	obs.PIILevel = cfg.PIILevel
	return obs
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

// newTitler returns nil when no title model is configured, which makes the
// chat service fall back to the heuristic titler.
func newTitler(cfg *config.Config, log zerolog.Logger) chat.Titler {
	if cfg.TitleLLMBaseURL == "" {
		return nil
	}
	return titlegen.NewOpenAITitler(cfg.TitleLLMBaseURL, cfg.TitleLLMAPIKey, cfg.TitleLLMModel, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
