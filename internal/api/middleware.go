package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"clawnch-scanner/internal/observability"
)

// requireSecret accepts "Authorization: Bearer <secret>" or ?secret=.
func (s *Server) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cronSecret == "" {
			c.Next()
			return
		}

		bearer := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if secretEqual(bearer, s.cronSecret) || secretEqual(c.Query("secret"), s.cronSecret) {
			c.Next()
			return
		}

		fail(c, http.StatusUnauthorized, "unauthorized")
		c.Abort()
	}
}

func secretEqual(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleBucketTTL bounds how long an unused bucket is kept.
const idleBucketTTL = 10 * time.Minute

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	return &clientLimiter{limit: limit, burst: burst, buckets: make(map[string]*limiterEntry)}
}

func (l *clientLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.buckets {
		if now.Sub(e.lastSeen) > idleBucketTTL {
			delete(l.buckets, key)
		}
	}

	e, ok := l.buckets[client]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[client] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter.allow(c.ClientIP(), s.now()) {
			c.Next()
			return
		}
		observability.RecordRateLimited(c.FullPath())
		fail(c, http.StatusTooManyRequests, "rate limit exceeded")
		c.Abort()
	}
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()))
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/health" || c.FullPath() == "/metrics" {
			return
		}
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("client", c.ClientIP()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
