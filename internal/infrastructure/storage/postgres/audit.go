package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "workshop/internal/core/context"
	"workshop/internal/core/id"
	"workshop/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the size above which changes are stored
// compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditEntry is a row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Action            audit.Action    `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId"`
	UserEmail         string          `db:"user_email" json:"userEmail,omitempty"`
	RequestID         string          `db:"request_id" json:"requestId,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditService writes the change log. It implements audit.Recorder.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, e audit.Entry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Changes:    changes,
	})
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if entry.UserID == "" {
		entry.UserID = audit.Actor(ctx)
	}
	if u := appctx.GetUser(ctx); u != nil && entry.UserEmail == "" {
		entry.UserEmail = u.Email
	}
	if entry.RequestID == "" {
		entry.RequestID = appctx.GetTrace(ctx).RequestIDOrEmpty()
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.compress(&entry)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, user_email, request_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.UserID, entry.UserEmail, entry.RequestID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// compress moves large changes into changes_compressed.
func (s *AuditService) compress(entry *AuditEntry) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

func (s *AuditService) decompress(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	entry.Changes = raw
	entry.ChangesCompressed = nil
	return nil
}

// GetEntityHistory returns the change log of an entity, newest first.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	entries := make([]AuditEntry, 0)
	err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, `
		SELECT id, entity_type, entity_id, action, user_id, user_email, request_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	for i := range entries {
		if err := s.decompress(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
