package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/internal/domain"
	"workshop/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// captureWriter keeps a copy of the response body for replay.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a repeated POST/PUT/PATCH that
// carries X-Idempotency-Key. Responses rendered by the handler with a status
// below 500 are stored for ttl; errors release the key so the client can retry.
func Idempotency(store domain.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			_ = c.Error(apperror.NewValidation("cannot read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		req := domain.IdempotencyRequest{
			Key:       key,
			UserID:    appctx.GetUserID(ctx),
			Operation: c.Request.Method + " " + c.FullPath(),
			Hash:      hex.EncodeToString(hash[:]),
		}

		replay, err := store.Acquire(ctx, req, ttl)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if len(c.Errors) > 0 || status >= http.StatusInternalServerError {
			if err := store.Release(ctx, key); err != nil {
				logger.Warn(ctx, "release idempotency key", "key", key, "error", err)
			}
			return
		}

		err = store.Complete(ctx, key, domain.IdempotencyReplay{
			StatusCode:  status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}, ttl)
		if err != nil {
			logger.Warn(ctx, "complete idempotency key", "key", key, "error", err)
		}
	}
}
