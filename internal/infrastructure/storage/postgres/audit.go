package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"kardex/internal/core/actor"
	"kardex/internal/core/id"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry records one posted document: who posted what and the full
// document payload for later inspection.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	DocumentType      string          `db:"document_type"`
	DocumentID        id.ID           `db:"document_id"`
	DocumentNumber    string          `db:"document_number"`
	Actor             string          `db:"actor"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes the posting audit trail. Large payloads (batch
// consumption runs can carry hundreds of lines) are zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

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
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Log records an audit entry. Call inside the posting transaction so
// the trail commits and rolls back with the document.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if entry.Actor == "" {
		entry.Actor = actor.Name(ctx)
	}

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Payload) > s.compressThreshold {
		entry.PayloadCompressed = s.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, document_type, document_id, document_number, actor,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.DocumentType, entry.DocumentID, entry.DocumentNumber,
		entry.Actor, entry.Payload, entry.PayloadCompressed,
		entry.CompressionAlgo, entry.CreatedAt,
	)

	return err
}

// LogPosting is a convenience wrapper marshalling the document payload.
func (s *AuditService) LogPosting(ctx context.Context, docType string, docID id.ID, number string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	return s.Log(ctx, AuditEntry{
		DocumentType:   docType,
		DocumentID:     docID,
		DocumentNumber: number,
		Payload:        raw,
	})
}

// DocumentHistory retrieves the audit trail of one document, newest first.
func (s *AuditService) DocumentHistory(ctx context.Context, docType string, docID id.ID, limit int) ([]AuditEntry, error) {
	sql := `
		SELECT id, document_type, document_id, document_number, actor,
			   payload, payload_compressed, compression_algo, created_at
		FROM audit_log
		WHERE document_type = $1 AND document_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, docType, docID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.DocumentType, &e.DocumentID, &e.DocumentNumber, &e.Actor,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.PayloadCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.Payload = decompressed
			e.PayloadCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
