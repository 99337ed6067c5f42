package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"saggita/internal/logger"
	"saggita/internal/metrics"
	"saggita/internal/models"
	"saggita/internal/repository"

	"github.com/gin-gonic/gin"
)

const staffKey = "staff"

// RequestID attaches a request id to the gin and request contexts so logs
// from deeper layers correlate
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Logger logs each request with latency and status
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.WithContext(c.Request.Context()).Info("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Metrics observes request latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// CORS allows the public form and the admin panel to call the API from the
// browser
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// BasicAuth authenticates staff accounts against the store. requireAdmin
// additionally rejects instructor accounts.
func BasicAuth(staff *repository.StaffRepository, requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="saggita"`)
			c.AbortWithStatusJSON(401, gin.H{"error": "authentication required"})
			return
		}

		account, err := staff.GetByEmail(c.Request.Context(), email)
		if err != nil {
			c.AbortWithStatusJSON(500, gin.H{"error": "internal error"})
			return
		}
		if account == nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid credentials"})
			return
		}

		given := hashPassword(password)
		if subtle.ConstantTimeCompare([]byte(given), []byte(account.PasswordHash)) != 1 {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid credentials"})
			return
		}

		if requireAdmin && account.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(403, gin.H{"error": "admin access required"})
			return
		}

		c.Set(staffKey, account)
		ctx := context.WithValue(c.Request.Context(), "staff_id", account.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// StaffFrom returns the authenticated staff account, nil on public routes
func StaffFrom(c *gin.Context) *models.Staff {
	v, ok := c.Get(staffKey)
	if !ok {
		return nil
	}
	staff, _ := v.(*models.Staff)
	return staff
}
