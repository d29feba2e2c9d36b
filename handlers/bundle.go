package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Voice webhooks
	IncomingCallHandler   gin.HandlerFunc
	ProcessSpeechHandler  gin.HandlerFunc
	RecordingHandler      gin.HandlerFunc
	TransferStatusHandler gin.HandlerFunc
	CallStatusHandler     gin.HandlerFunc

	// Admin endpoints
	ActiveCallsHandler gin.HandlerFunc
	CallDetailHandler  gin.HandlerFunc

	// Middleware inputs
	AdminToken       string
	TwilioAuthToken  string
	ValidateWebhooks bool
	PublicBaseURL    string
}
