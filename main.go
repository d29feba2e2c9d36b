package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"centromedico/config"
	"centromedico/handlers"
	"centromedico/middleware"
	"centromedico/routes"
	"centromedico/services/booking"
	"centromedico/services/calendar"
	"centromedico/services/call"
	"centromedico/services/emergency"
	"centromedico/services/events"
	"centromedico/services/hours"
	ai "centromedico/services/intelligence"
	"centromedico/services/session"
	"centromedico/services/speech"
	"centromedico/services/transfer"
	"centromedico/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(ctx, cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to set up tracing: %v", err)
	}

	office, err := cfg.Office()
	if err != nil {
		logger.Warn("Invalid office configuration, using defaults for the invalid values", zap.Error(err))
	}

	if err := utils.InitCache(); err != nil {
		logger.Warn("Availability cache disabled", zap.Error(err))
	}

	// collaborators.
	var cal calendar.Calendar
	googleCal, err := calendar.NewGoogleCalendar(ctx, cfg.GoogleServiceAccountFile, cfg.GoogleCalendarMainID, office.Location.String(), logger)
	switch {
	case err == nil:
		cal = googleCal
	case errors.Is(err, calendar.ErrNotConfigured):
		logger.Warn("No Google calendar configured, appointments are kept in memory")
		cal = calendar.NewMemoryCalendar()
	default:
		logger.Sugar().Fatalf("main: failed to initialize calendar: %v", err)
	}
	if rc := utils.GetCacheClient(); rc != nil {
		cal = calendar.NewCachedCalendar(cal, rc, cfg.CalendarCacheTTL, logger)
	}

	var reasoner ai.Reasoner
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiReasoner(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, office.Name, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer gemini.Close()
		reasoner = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, using local keyword reasoner")
		reasoner = ai.NewLocalReasoner()
	}

	var transcriber speech.Transcriber
	if cfg.SpeechRecordingFallback {
		gt, err := speech.NewGoogleTranscriber(ctx, cfg.GoogleServiceAccountFile,
			cfg.TwilioAccountSID, cfg.TwilioAuthToken, utils.VoiceLanguage, logger)
		if err != nil {
			logger.Warn("Recording fallback disabled", zap.Error(err))
		} else {
			defer gt.Close()
			transcriber = gt
		}
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if brokers := config.SplitList(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, logger)
	}
	defer publisher.Close()

	// services.
	sessions := session.NewStore(cfg.SessionIdleTimeout, session.WithLogger(logger))
	go sessions.Run(ctx, time.Minute)

	policy := hours.NewPolicy(office)
	router := transfer.NewRouter(transfer.Destinations{
		Extensions:     config.SplitList(cfg.OperatorExtensions),
		ExternalMobile: cfg.OutOfHoursMobile,
		ExternalTrunk:  cfg.OutOfHoursTransferNumber,
	}, policy, office.Name, logger)

	finder := &booking.SlotFinder{
		Calendar:    cal,
		Office:      office,
		CallTimeout: cfg.ExternalCallTimeout,
		Logger:      logger,
	}
	orchestrator := &booking.Orchestrator{
		Finder:      finder,
		Calendar:    cal,
		Dates:       policy,
		CallTimeout: cfg.ExternalCallTimeout,
		Logger:      logger,
	}

	calls := &call.Handler{
		Sessions:  sessions,
		Hours:     policy,
		Emergency: emergency.NewDetector(cfg.EmergencyNumber),
		Router:    router,
		Reasoner:  reasoner,
		Booking:   orchestrator,
		Events:    publisher,
		Settings: call.Settings{
			OfficeName:           office.Name,
			MaxReasoningFailures: cfg.MaxReasoningFailures,
			MaxEmptyInputRetries: cfg.MaxEmptyInputRetries,
			HistoryWindow:        cfg.HistoryWindow,
			ReasoningTimeout:     cfg.ExternalCallTimeout,
			GoodbyeKeywords:      lowerList(cfg.GoodbyeKeywords),
			FurtherHelpMarkers:   lowerList(cfg.FurtherHelpMarkers),
		},
		Logger: logger,
	}

	utils.StartHealthMonitor(ctx, time.Minute, utils.GetCacheClient(), sessions.Len)

	voiceHandler := handlers.NewVoiceHandler(calls, transcriber, handlers.VoiceSettings{
		BaseURL:           strings.TrimRight(cfg.PublicBaseURL, "/"),
		DialTimeout:       cfg.TransferDialTimeoutSecond,
		RecordingFallback: cfg.SpeechRecordingFallback,
		TranscribeTimeout: cfg.ExternalCallTimeout,
	})
	adminHandler := handlers.NewAdminHandler(sessions)

	validate := cfg.TwilioValidateSignature && cfg.TwilioAuthToken != ""
	if cfg.TwilioValidateSignature && !validate {
		logger.Warn("TWILIO_AUTH_TOKEN not set, webhook signatures are not checked")
	}
	if validate && cfg.PublicBaseURL == "" {
		logger.Warn("PUBLIC_BASE_URL not set, signed webhook URLs are rebuilt from forwarded headers")
	}

	handlerBundle := &handlers.HandlerBundle{
		IncomingCallHandler:   voiceHandler.IncomingCallHandler,
		ProcessSpeechHandler:  voiceHandler.ProcessSpeechHandler,
		RecordingHandler:      voiceHandler.RecordingHandler,
		TransferStatusHandler: voiceHandler.TransferStatusHandler,
		CallStatusHandler:     voiceHandler.CallStatusHandler,

		ActiveCallsHandler: adminHandler.ActiveCallsHandler,
		CallDetailHandler:  adminHandler.CallDetailHandler,

		AdminToken:       cfg.AdminToken,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		ValidateWebhooks: validate,
		PublicBaseURL:    strings.TrimRight(cfg.PublicBaseURL, "/"),
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(utils.ErrorHandler())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	routes.RegisterRoutes(engine, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: otelhttp.NewHandler(engine, "voice"),
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

func lowerList(raw string) []string {
	items := config.SplitList(raw)
	for i, s := range items {
		items[i] = strings.ToLower(s)
	}
	return items
}
