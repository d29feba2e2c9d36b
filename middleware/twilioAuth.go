package middleware

import (
	"net/http"
	"strings"

	"centromedico/utils"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignatureMiddleware rejects webhooks whose signature does not match the
// account auth token. baseURL is the public scheme and host the provider calls;
// when empty it is rebuilt from the request.
func TwilioSignatureMiddleware(authToken, baseURL string) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		url := webhookURL(c, baseURL)
		if !validator.Validate(url, params, c.GetHeader(twilioSignatureHeader)) {
			utils.GetLogger().Warn("Rejected webhook with invalid signature",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", clientIP(c)))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// webhookURL is the URL the provider signed. Behind a proxy the forwarded
// scheme and host win over the ones the server sees.
func webhookURL(c *gin.Context, baseURL string) string {
	if baseURL != "" {
		return baseURL + c.Request.URL.RequestURI()
	}
	proto := "http"
	if c.Request.TLS != nil {
		proto = "https"
	}
	if fp := firstValue(c.GetHeader("X-Forwarded-Proto")); fp != "" {
		proto = fp
	}
	host := c.Request.Host
	if fh := firstValue(c.GetHeader("X-Forwarded-Host")); fh != "" {
		host = fh
	}
	return proto + "://" + host + c.Request.URL.RequestURI()
}

func firstValue(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
