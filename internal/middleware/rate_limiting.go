package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"retail-pos-backend/internal/config"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager hands out per-IP limiters and evicts idle ones.
type RateLimitManager struct {
	visitors   map[string]*visitor
	visitorsMu sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	managerCtx, cancel := context.WithCancel(ctx)

	m := &RateLimitManager{
		visitors: make(map[string]*visitor),
		ctx:      managerCtx,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// GetVisitor retrieves or creates a rate limiter for the given IP
func (m *RateLimitManager) GetVisitor(ip string, requestsPerWindow, windowSeconds int) *rate.Limiter {
	m.visitorsMu.Lock()
	defer m.visitorsMu.Unlock()

	if requestsPerWindow <= 0 {
		return nil
	}

	v, exists := m.visitors[ip]
	if !exists {
		if windowSeconds <= 0 {
			windowSeconds = 60
		}

		limiter := rate.NewLimiter(rate.Limit(float64(requestsPerWindow)/float64(windowSeconds)), requestsPerWindow)
		m.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (m *RateLimitManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.visitorsMu.Lock()
			for ip, v := range m.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(m.visitors, ip)
				}
			}
			m.visitorsMu.Unlock()
		}
	}
}

func (m *RateLimitManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

// RateLimitMiddleware limits request rate per client IP.
func RateLimitMiddleware(cfg *config.Config, manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}

		limiter := manager.GetVisitor(c.ClientIP(), cfg.RateLimitRequests, cfg.RateLimitWindow)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
