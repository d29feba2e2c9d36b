package handlers

import (
	"net/http"

	"centromedico/services/session"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes read-only views of the running process.
type AdminHandler struct {
	Sessions *session.Store
}

func NewAdminHandler(sessions *session.Store) *AdminHandler {
	return &AdminHandler{Sessions: sessions}
}

// ActiveCallsHandler lists the calls currently held in memory.
func (ah *AdminHandler) ActiveCallsHandler(c *gin.Context) {
	calls := ah.Sessions.Active()
	c.JSON(http.StatusOK, gin.H{"count": len(calls), "calls": calls})
}

// CallDetailHandler returns one call with its full history.
func (ah *AdminHandler) CallDetailHandler(c *gin.Context) {
	sess, ok := ah.Sessions.Get(c.Param("callSid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}
