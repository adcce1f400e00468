package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// claimTTL bounds how long a first attempt may hold the key before a
	// retry is allowed through. Cancellations charge fees, so two attempts
	// for the same key must never both execute.
	claimTTL = 30 * time.Second

	claimPending = "__pending__"
)

// storedResponse is the replayed body for a repeated mutating request.
type storedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for repeated requests
// carrying the same Idempotency-Key. The key is scoped to method and path so
// one key cannot bleed between, say, a cancel and a transition call.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + c.Request.Method + ":" + c.FullPath() + ":" + key

		// Claim the key. Losing the race means another attempt with the same
		// key is running or already finished.
		claimed, err := redisClient.SetNX(ctx, cacheKey, claimPending, claimTTL).Result()
		if err != nil {
			// Redis unreachable. Let the request through rather than fail it.
			c.Next()
			return
		}

		if !claimed {
			stored, err := loadResponse(ctx, redisClient, cacheKey)
			if err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is still in progress"})
				c.Abort()
				return
			}
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		w := &captureWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			stored := storedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			}
			_ = saveResponse(ctx, redisClient, cacheKey, &stored)
		} else {
			// Server-side failure: release the claim so the caller can retry.
			_ = redisClient.Del(ctx, cacheKey).Err()
		}
	}
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	if string(data) == claimPending {
		return nil, redis.Nil
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func saveResponse(ctx context.Context, client *redis.Client, key string, stored *storedResponse) error {
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
