package middleware

import (
	"sync"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"golang.org/x/time/rate"
)

const (
	maxTrackedIPs = 10000
	idleIPTimeout = 3 * time.Minute
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client ip.
type IPRateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*visitor), rateLimit: r, burstRate: b}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := time.Now()
	v, exists := i.ips[ip]
	if !exists {
		if len(i.ips) >= maxTrackedIPs {
			i.evictIdle(now)
		}
		v = &visitor{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// caller holds mu
func (i *IPRateLimiter) evictIdle(now time.Time) {
	for ip, v := range i.ips {
		if now.Sub(v.lastSeen) > idleIPTimeout {
			delete(i.ips, ip)
		}
	}
}

//TODO: per-ip buckets live in process memory, move them to redis before running more than one instance
