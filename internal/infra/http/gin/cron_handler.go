package ginserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/yuzpew2/casadbendang/internal/app/bookings"
)

// CronHandler exposes the expiry sweep to an external scheduler. The route
// is guarded by a shared bearer secret; with no secret configured the route
// refuses all calls rather than running open.
type CronHandler struct {
	Reclaimer *bookings.Reclaimer
	Secret    string
}

func (h CronHandler) CancelExpired(c *gin.Context) {
	if !h.authorized(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	results, err := h.Reclaimer.SweepAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	var cancelled int64
	for _, r := range results {
		cancelled += r.Affected
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cancelled": cancelled,
		"results":   results,
	})
}

func (h CronHandler) authorized(header string) bool {
	if h.Secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) == 1
}
