package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler catches panics. Voice webhooks get a spoken apology so the
// caller never hears silence; everything else gets a JSON error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path))

				if strings.HasPrefix(c.Request.URL.Path, "/webhook/") {
					TwiMLApology(c)
				} else {
					c.JSON(http.StatusInternalServerError, ErrorResponse{
						Message: "Internal Server Error",
						Details: "An unexpected error occurred. Please try again later.",
					})
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}

// TwiMLApology answers a voice webhook with an apology and hangs up.
func TwiMLApology(c *gin.Context) {
	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: ApologyText, Language: VoiceLanguage, Voice: VoiceName},
		&twiml.VoiceHangup{},
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(doc))
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}
