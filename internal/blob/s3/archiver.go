package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// TradePruner is optionally implemented by trade stores that can drop
// records after a verified export. The in-memory store does not prune.
type TradePruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver: it exports old fill-log records to
// object storage as JSONL, partitioned by year-month, and prunes them from
// the primary store when the store supports it.
type Archiver struct {
	writer domain.BlobWriter
	trades domain.TradeStore
	logger *slog.Logger
	prune  bool
}

// NewArchiver creates an Archiver over the given blob writer and trade
// store. When prune is true and the store implements TradePruner, exported
// records are deleted after a successful upload.
func NewArchiver(writer domain.BlobWriter, trades domain.TradeStore, logger *slog.Logger, prune bool) *Archiver {
	return &Archiver{
		writer: writer,
		trades: trades,
		logger: logger.With("component", "archiver"),
		prune:  prune,
	}
}

var _ domain.Archiver = (*Archiver)(nil)

// ArchiveTrades exports every fill recorded before the cutoff to
// archive/trades/YYYY-MM.jsonl and returns the exported count. Pruning
// happens only after the upload succeeds, so a failed run leaves the
// primary store untouched.
func (a *Archiver) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	records, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades query: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	path := archivePath("trades", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	count := int64(len(records))
	a.logger.Info("archived trades",
		"path", path,
		"count", count,
		"before", before.Format(time.RFC3339))

	if a.prune {
		if pruner, ok := a.trades.(TradePruner); ok {
			deleted, err := pruner.DeleteBefore(ctx, before)
			if err != nil {
				return count, fmt.Errorf("s3blob: prune archived trades: %w", err)
			}
			a.logger.Info("pruned archived trades", "deleted", deleted)
		}
	}

	return count, nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff, e.g. archive/trades/2026-08.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
