package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLogin = "invoicedesk:login:%s"

// LoginLimiter throttles token requests per client address. Without redis
// every request is allowed.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

type Params struct {
	fx.In

	Config config.Config
	Redis  *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func NewLoginLimiter(p Params) *LoginLimiter {
	return &LoginLimiter{
		bucket: NewTokenBucket(p.Redis),
		rate:   p.Config.LoginRate,
		burst:  p.Config.LoginBurst,
		log:    p.Log.Named("ratelimit.login"),
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil && l.rate > 0 && l.burst > 0
}

// Allow fails open when redis errors so an outage does not lock operators out.
func (l *LoginLimiter) Allow(ctx context.Context, clientAddr string) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true}
	}
	d, err := l.bucket.Take(ctx, fmt.Sprintf(keyLogin, strings.TrimSpace(clientAddr)), l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return Decision{Allowed: true}
	}
	if !d.Allowed {
		l.log.Info("login throttled", zap.String("client", clientAddr), zap.Duration("retry_after", d.RetryAfter))
	}
	return d
}
