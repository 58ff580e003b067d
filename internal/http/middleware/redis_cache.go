package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	cache "github.com/open-builders/giveaway-discord-bot/internal/cache/redis"
	rplatform "github.com/open-builders/giveaway-discord-bot/internal/platform/redis"
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder keeps a copy of what the handler writes.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// RedisCache caches successful GET responses for ttl, keyed by path. Writers
// invalidate entries through the giveaway cache, which derives the same keys.
func RedisCache(rdb *rplatform.Client, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cache.ResponseKey(c.Request.URL.Path)

		if bs, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil && len(bs) > 0 {
			var entry cachedResponse
			if json.Unmarshal(bs, &entry) == nil {
				c.Header("X-Cache", "HIT")
				c.Data(entry.Status, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		// Errors are rendered later by the error middleware.
		status := rec.Status()
		if len(c.Errors) > 0 || !rec.Written() || status < 200 || status >= 300 {
			return
		}
		entry := cachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		payload, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := rdb.SetEx(context.WithoutCancel(c.Request.Context()), key, payload, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}
}
