package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitors tracks one token bucket per client IP, evicting buckets
// that have been idle for a while.
type visitors struct {
	mu      sync.Mutex
	buckets map[string]*visitorBucket
	r       rate.Limit
	b       int
}

type visitorBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (v *visitors) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	bkt, ok := v.buckets[ip]
	if !ok {
		bkt = &visitorBucket{limiter: rate.NewLimiter(v.r, v.b)}
		v.buckets[ip] = bkt
	}
	bkt.lastSeen = time.Now()
	return bkt.limiter.Allow()
}

func (v *visitors) evictIdle(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, bkt := range v.buckets {
		if bkt.lastSeen.Before(cutoff) {
			delete(v.buckets, ip)
		}
	}
}

// RateLimit applies a per-IP token bucket: r requests per second with
// burst b. Idle IPs are evicted in the background so the bucket map
// stays bounded.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	v := &visitors{buckets: make(map[string]*visitorBucket), r: r, b: b}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			v.evictIdle(10 * time.Minute)
		}
	}()

	return func(c *gin.Context) {
		if !v.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
