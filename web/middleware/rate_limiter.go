package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	QuestionsPerMinute int // Max analysis questions per session per minute
	BurstSize          int // Allow burst of N requests
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tokens := min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	return int(tokens)
}

// SessionRateLimiter manages per-session question limits. Each question fans
// out into up to 1+MaxRepairAttempts LLM calls, so the limit here is the
// cheap front door for the expensive upstream.
type SessionRateLimiter struct {
	config RateLimiterConfig
	limits map[uuid.UUID]*TokenBucket
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewSessionRateLimiter creates a new session-based rate limiter
func NewSessionRateLimiter(config RateLimiterConfig, logger *zap.Logger) *SessionRateLimiter {
	return &SessionRateLimiter{
		config: config,
		limits: make(map[uuid.UUID]*TokenBucket),
		logger: logger,
	}
}

// AllowQuestion checks if an analysis request can proceed for the session
func (srl *SessionRateLimiter) AllowQuestion(sessionID uuid.UUID) bool {
	srl.mu.Lock()
	bucket, exists := srl.limits[sessionID]
	if !exists {
		refillRate := float64(srl.config.QuestionsPerMinute) / 60.0
		bucket = NewTokenBucket(float64(srl.config.BurstSize), refillRate)
		srl.limits[sessionID] = bucket
	}
	srl.mu.Unlock()

	return bucket.Allow()
}

// GetQuestionLimit returns remaining question tokens for a session
func (srl *SessionRateLimiter) GetQuestionLimit(sessionID uuid.UUID) (remaining int, limit int) {
	srl.mu.RLock()
	bucket, exists := srl.limits[sessionID]
	srl.mu.RUnlock()

	if !exists {
		return srl.config.BurstSize, srl.config.BurstSize
	}
	return bucket.Remaining(), srl.config.BurstSize
}

// DropSessions removes buckets whose sessions the store has evicted.
func (srl *SessionRateLimiter) DropSessions(live func(uuid.UUID) bool) {
	srl.mu.Lock()
	defer srl.mu.Unlock()
	for id := range srl.limits {
		if !live(id) {
			delete(srl.limits, id)
		}
	}
}

// RateLimitMiddleware creates a Gin middleware for rate limiting analysis
// requests. Runs after SessionMiddleware.
func RateLimitMiddleware(limiter *SessionRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		sessionID := sess.ID()

		allowed := limiter.AllowQuestion(sessionID)
		remaining, limit := limiter.GetQuestionLimit(sessionID)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			limiter.logger.Warn("Rate limit exceeded",
				zap.String("session_id", sessionID.String()),
				zap.Int("limit", limit))

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
