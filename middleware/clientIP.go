package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP is the address used to key rate limits and tag webhook logs. Behind
// the load balancer the first X-Forwarded-For entry is the provider's edge node.
func clientIP(c *gin.Context) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		first, _, _ := strings.Cut(c.GetHeader(header), ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
