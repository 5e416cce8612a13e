// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/constants"
	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
	"github.com/taibuivan/sprinto/internal/platform/respond"
)

// windowScript counts a hit in a fixed window and returns {count, remaining_ms}.
var windowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { current, ttl }
`)

// refundScript gives back one hit without recreating an expired window.
var refundScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return redis.call('DECR', KEYS[1])
	end
	return 0
`)

// WindowLimit caps attempts per client IP within a fixed window shared through Redis.
//
// It protects the sensitive auth routes (login, forgot-password). When Redis
// is unreachable the request is let through and a warning is logged.
type WindowLimit struct {
	client         *redis.Client
	name           string
	limit          int
	window         time.Duration
	message        string
	skipSuccessful bool
}

// NewWindowLimit builds a limiter named name allowing limit hits per window.
func NewWindowLimit(client *redis.Client, name string, limit int, window time.Duration, message string) *WindowLimit {
	return &WindowLimit{
		client:  client,
		name:    name,
		limit:   limit,
		window:  window,
		message: message,
	}
}

// SkipSuccessful makes responses below 400 give their hit back, so only
// failed attempts count towards the limit.
func (limiter *WindowLimit) SkipSuccessful() *WindowLimit {
	limiter.skipSuccessful = true
	return limiter
}

func (limiter *WindowLimit) key(request *http.Request) string {
	return constants.RedisPrefixRateLimit + limiter.name + ":" + RealIP(request)
}

// Handler returns the limiter as a middleware.
func (limiter *WindowLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		key := limiter.key(request)

		values, err := windowScript.Run(ctx, limiter.client, []string{key}, limiter.window.Milliseconds()).Int64Slice()
		if err != nil || len(values) != 2 {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "rate_limit_unavailable",
				slog.String("limiter", limiter.name),
				slog.Any("error", err),
			)
			next.ServeHTTP(writer, request)
			return
		}

		count, remainingMs := values[0], values[1]
		writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		writer.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limiter.limit)-count, 0), 10))

		if count > int64(limiter.limit) {
			retryAfter := int(math.Ceil(float64(remainingMs) / 1000.0))
			if retryAfter < 0 {
				retryAfter = 0
			}
			writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))

			limited := apperr.RateLimited(retryAfter)
			if limiter.message != "" {
				limited.Message = limiter.message
			}
			respond.Error(writer, request, limited)
			return
		}

		recorder := NewStatusRecorder(writer)
		next.ServeHTTP(recorder, request)

		if limiter.skipSuccessful && recorder.Status < http.StatusBadRequest {
			if err := refundScript.Run(ctxutil.Detach(ctx), limiter.client, []string{key}).Err(); err != nil {
				ctxutil.GetLogger(ctx).WarnContext(ctx, "rate_limit_refund_failed",
					slog.String("limiter", limiter.name),
					slog.Any("error", err),
				)
			}
		}
	})
}
