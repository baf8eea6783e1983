package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultQueryTimeout bounds how long a request may wait on the database.
const DefaultQueryTimeout = 10 * time.Second

// QueryTimeout attaches a deadline to the request context so storage round
// trips cannot block indefinitely.
func QueryTimeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
