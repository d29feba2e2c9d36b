package routes

import (
	"time"

	"centromedico/handlers"
	"centromedico/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterVoiceRoutes registers the telephony webhooks.
func RegisterVoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	voice := r.Group(handlers.VoicePath)
	if hb.ValidateWebhooks {
		voice.Use(middleware.TwilioSignatureMiddleware(hb.TwilioAuthToken, hb.PublicBaseURL))
	}
	{
		voice.POST("", hb.IncomingCallHandler)
		voice.POST("/process", hb.ProcessSpeechHandler)
		voice.POST("/recording", hb.RecordingHandler)
		voice.POST("/transfer-status", hb.TransferStatusHandler)
		voice.POST("/status", hb.CallStatusHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware(hb.AdminToken))
		adminGroup.GET("/calls", hb.ActiveCallsHandler)
		adminGroup.GET("/calls/:callSid", hb.CallDetailHandler)
	}
}

// RegisterHealthRoute registers the health-check endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/", handlers.RootHandler)
	r.GET("/health", handlers.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// The admin dashboard reads /api from another origin.
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterVoiceRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
