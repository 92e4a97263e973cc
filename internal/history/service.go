// Package history routes emission records to the database and falls back to
// the local buffer file when the database is unreachable, so a computed
// month is never lost to an outage.
package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/localstore"
	"github.com/omraut/carbon-terminal/internal/model"
)

// RecordStore is the primary persistence surface, implemented by
// repository.EmissionRepo.
type RecordStore interface {
	Insert(ctx context.Context, rec model.EmissionRecord) error
	ListAsc(ctx context.Context, userID string) ([]model.EmissionRecord, error)
}

// Service owns the primary-then-buffer write path.
type Service struct {
	primary RecordStore
	buffer  *localstore.Store
	log     *zap.Logger
}

func New(primary RecordStore, buffer *localstore.Store, log *zap.Logger) *Service {
	return &Service{primary: primary, buffer: buffer, log: log}
}

// Save writes the record to the database. When that fails the record lands
// in the local buffer instead and the error is not surfaced to the caller;
// the estimate the user just saw must stand regardless of storage health.
func (s *Service) Save(ctx context.Context, rec model.EmissionRecord) {
	if err := s.primary.Insert(ctx, rec); err == nil {
		return
	} else {
		s.log.Warn("primary store rejected record, buffering locally",
			zap.String("record_id", rec.ID), zap.Error(err))
	}
	if err := s.buffer.AppendHistory(rec); err != nil {
		s.log.Error("local buffer write failed, record dropped",
			zap.String("record_id", rec.ID), zap.Error(err))
	}
}

// History reads from the database, oldest first. On failure it serves the
// local buffer so trend views keep working offline.
func (s *Service) History(ctx context.Context, userID string) []model.EmissionRecord {
	recs, err := s.primary.ListAsc(ctx, userID)
	if err == nil {
		return recs
	}
	s.log.Warn("primary store read failed, serving local buffer", zap.Error(err))
	buffered, berr := s.buffer.History()
	if berr != nil {
		s.log.Error("local buffer read failed", zap.Error(berr))
		return nil
	}
	if userID == "" {
		return buffered
	}
	var out []model.EmissionRecord
	for _, rec := range buffered {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}
