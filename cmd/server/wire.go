//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"ruleout-server/internal/config"
	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/conversation"
	"ruleout-server/internal/domain/guest"
	"ruleout-server/internal/domain/project"
	"ruleout-server/internal/infrastructure/cache"
	"ruleout-server/internal/infrastructure/database"
	"ruleout-server/internal/infrastructure/database/repository"
	"ruleout-server/internal/infrastructure/logger"
	"ruleout-server/internal/infrastructure/metrics"
	"ruleout-server/internal/infrastructure/qaclient"
	"ruleout-server/internal/interfaces/httpserver"
	"ruleout-server/internal/interfaces/httpserver/handlers"
	"ruleout-server/internal/interfaces/httpserver/middlewares"
)

var conversationSet = wire.NewSet(
	repository.RepositoryProvider,
	conversation.NewService,
	wire.Bind(new(project.ConversationReader), new(*conversation.Service)),
	wire.Bind(new(chat.ConversationStore), new(*conversation.Service)),
	project.NewService,
)

var chatSet = wire.NewSet(
	newQAClient,
	wire.Bind(new(chat.QAClient), new(*qaclient.Client)),
	newGuestLimiter,
	wire.Bind(new(chat.GuestGate), new(*guest.Limiter)),
	newTitler,
	chat.NewRegistry,
	newChatConfig,
	newChatService,
)

// BuildChatApplication assembles a server exposing chat and the
// conversation store. Guests are metered in memory and auth stays disabled.
func BuildChatApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		conversationSet,
		chatSet,
		newChatServices,
		handlers.NewProvider,
		newDebugAuthenticator,
		newReadinessChecks,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newQAClient(cfg *config.Config, log zerolog.Logger) *qaclient.Client {
	return qaclient.NewClient(cfg.QABaseURL, cfg.UpstreamTimeout, log)
}

func newGuestLimiter(cfg *config.Config, log zerolog.Logger) (*guest.Limiter, error) {
	counter, err := cache.NewMemoryCounter(cfg.GuestCacheSize, cfg.GuestWindow)
	if err != nil {
		return nil, err
	}
	return guest.NewLimiter(counter, cfg.GuestQueryLimit, log, guest.WithRejectHook(metrics.RecordGuestRejection)), nil
}

func newChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{HistoryWindow: cfg.HistoryWindow}
}

func newChatService(
	qa chat.QAClient,
	store chat.ConversationStore,
	guests chat.GuestGate,
	titler chat.Titler,
	registry *chat.Registry,
	cfg chat.Config,
	log zerolog.Logger,
) *chat.Service {
	return chat.NewService(qa, store, guests, titler, registry, cfg, log, chat.WithObserver(metrics.ChatObserver{}))
}

func newChatServices(
	chatService *chat.Service,
	conversations *conversation.Service,
	projects *project.Service,
	limiter *guest.Limiter,
) handlers.Services {
	return handlers.Services{
		Chat:          chatService,
		Conversations: conversations,
		Projects:      projects,
		Guest:         limiter,
	}
}

func newDebugAuthenticator(log zerolog.Logger) *middlewares.Authenticator {
	return middlewares.NewAuthenticator(nil, false, log)
}

func newReadinessChecks(db *gorm.DB) []httpserver.ReadinessCheck {
	return []httpserver.ReadinessCheck{
		{Name: "database", Check: func(context.Context) error { return database.Ping(db) }},
	}
}
