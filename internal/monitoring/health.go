package monitoring

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"library-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BookCounter is the slice of the catalog the health check needs.
type BookCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler reports liveness of the library: the database must answer a
// ping and the catalog must be countable. Degraded state returns 503 with
// the failure detail.
func HealthHandler(db *sql.DB, books BookCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "down",
				"library": "unavailable",
				"error":   err.Error(),
			})
			return
		}

		countCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		total, err := books.Count(countCtx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "down",
				"library": "unavailable",
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"library":     "operational",
			"total_books": total,
		})
	}
}
