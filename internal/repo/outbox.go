package repo

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/apparel_shop/pkg/outbox"
)

const maxOutboxRetries = 5

// AppendEvent writes an outbox row. Call it on a transaction-bound repo so
// the event commits with the change it describes.
func (r *GormRepo) AppendEvent(ctx context.Context, aggregateID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&outbox.Event{
		AggregateID: aggregateID,
		Type:        eventType,
		Payload:     body,
		Status:      outbox.StatusPending,
	}).Error
}

func (r *GormRepo) ListEvents(ctx context.Context, aggregateID string) ([]outbox.Event, error) {
	var events []outbox.Event
	err := r.DB.WithContext(ctx).Where("aggregate_id = ?", aggregateID).Order("id").Find(&events).Error
	return events, err
}

// OutboxStore is the relay's view of the outbox table.
type OutboxStore struct {
	DB *gorm.DB
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	var events []outbox.Event
	now := time.Now().UTC()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status IN ? AND retry_count < ?) OR (status = ? AND locked_until < ?)",
				[]outbox.Status{outbox.StatusPending, outbox.StatusFailed}, maxOutboxRetries,
				outbox.StatusInProgress, now).
			Order("id").
			Limit(batchSize)
		if err := q.Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]int64, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		until := now.Add(lease)
		return tx.Model(&outbox.Event{}).Where("id IN ?", ids).Updates(map[string]any{
			"status":       outbox.StatusInProgress,
			"locked_by":    relayID,
			"locked_until": until,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	return s.DB.WithContext(ctx).Model(&outbox.Event{}).Where("id IN ?", ids).Updates(map[string]any{
		"status":       outbox.StatusSent,
		"locked_by":    "",
		"locked_until": nil,
	}).Error
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return s.DB.WithContext(ctx).Model(&outbox.Event{}).Where("id = ?", id).Updates(map[string]any{
		"status":       outbox.StatusFailed,
		"retry_count":  gorm.Expr("retry_count + 1"),
		"last_error":   errMsg,
		"locked_by":    "",
		"locked_until": nil,
	}).Error
}
