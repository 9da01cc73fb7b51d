package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"prospectflow/config"
	"prospectflow/internal/api"
	"prospectflow/internal/gmail"
	"prospectflow/internal/importer"
	"prospectflow/internal/mailcheck"
	"prospectflow/internal/notify"
	"prospectflow/internal/repository"
	"prospectflow/pkg/db"
	"prospectflow/pkg/logger"
	"prospectflow/pkg/mq"
	redisclient "prospectflow/pkg/redis"
	"prospectflow/pkg/util"
)

func main() {
	cfg := config.Load()

	logger := logger.New()
	defer logger.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis deduper
	rdb := redisclient.NewClient(cfg.Redis)
	deduper := util.NewDeduper(rdb, 72*time.Hour, logger)

	// Init RabbitMQ publisher; the pipelines run without a broker.
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Warn("MQ initialization failed, events disabled", zap.Error(err))
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Init Gmail source
	var mailSource gmail.Source
	gmailClient, err := gmail.NewClient(cfg.Gmail)
	if err != nil {
		logger.Warn("Gmail not configured, mail check disabled", zap.Error(err))
	} else {
		mailSource = gmailClient
	}

	// Init Repositories
	prospectRepo := repository.NewProspectRepository(dbConn, logger)
	outboundRepo := repository.NewOutboundEmailRepository(dbConn, logger)
	followUpRepo := repository.NewFollowUpRepository(dbConn, logger)
	receivedRepo := repository.NewReceivedEmailRepository(dbConn, logger)
	expertReceivedRepo := repository.NewExpertReceivedEmailRepository(dbConn, logger)
	expertEmailRepo := repository.NewExpertEmailRepository(dbConn, logger)
	notificationRepo := repository.NewNotificationRepository(dbConn, logger)
	accountRepo := repository.NewAccountRepository(dbConn, logger)
	profileRepo := repository.NewBusinessProfileRepository(dbConn, logger)
	referenceRepo := repository.NewReferenceRepository(dbConn, profileRepo, logger)
	relationRepo := repository.NewRelationRepository(dbConn, logger)
	historyRepo := repository.NewImportHistoryRepository(dbConn, logger)

	// Mail-check pipeline
	emitter := notify.NewEmitter(accountRepo, notificationRepo, prospectRepo, logger)
	classifier := mailcheck.NewClassifier()
	matcher := mailcheck.NewMatcher(expertEmailRepo, prospectRepo, outboundRepo, logger)
	controller := mailcheck.NewController(
		prospectRepo, outboundRepo, followUpRepo,
		receivedRepo, expertReceivedRepo,
		emitter, classifier, logger,
	)
	runner := mailcheck.NewRunner(
		mailSource, classifier, matcher, controller,
		receivedRepo, expertReceivedRepo,
		deduper, publisher, logger,
	)

	// Import pipeline
	transformer := importer.NewTransformer(referenceRepo, logger)
	validator := importer.NewValidator(profileRepo)
	creator := importer.NewEntityCreator(profileRepo, accountRepo, logger)
	relations := importer.NewRelationBuilder(referenceRepo, relationRepo, logger)
	pipeline := importer.NewPipeline(
		transformer, validator, creator, relations,
		historyRepo, publisher, logger,
	)

	// Handlers
	mailCheckHandler := api.NewMailCheckHandler(runner, logger)
	importHandler := api.NewImportHandler(pipeline, historyRepo, cfg.Import.MaxFileSizeMB, logger)
	var oauthHandler *api.OAuthHandler
	if gmailClient != nil {
		oauthHandler = api.NewOAuthHandler(gmailClient, logger)
	}

	router := api.NewRouter(cfg, mailCheckHandler, importHandler, oauthHandler, dbConn, publisher)

	logger.Info("Starting prospectflow server", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}
