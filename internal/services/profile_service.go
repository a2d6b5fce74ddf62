package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"paga/internal/amqp"
	"paga/internal/log"
	"paga/internal/storage"
)

// ProfileService bridges sessions and the document store: hydration on
// session start, asynchronous persistence after every committed
// change, and export requests to the summary queue.
type ProfileService struct {
	records    storage.RecordStore
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewProfileService(records storage.RecordStore, amqpClient *amqp.Client, logger *log.Logger) *ProfileService {
	return &ProfileService{
		records:    records,
		amqpClient: amqpClient,
		logger:     logger.WithComponent("profiles"),
	}
}

// HydrateSession loads the user's record into the session store. An
// absent record yields a fresh default profile; a read failure also
// degrades to defaults and is only logged, never surfaced as a
// blocking error.
func (p *ProfileService) HydrateSession(ctx context.Context, sess *Session) error {
	raw, err := p.records.LoadRecord(ctx, sess.UID())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		raw = nil
	case err != nil:
		p.logger.ErrorContext(ctx, "Record load failed, starting from defaults",
			"uid", sess.UID(), "error", err)
		raw = nil
	}

	sess.mu.Lock()
	sess.store.Hydrate(raw)
	sess.mu.Unlock()
	return nil
}

// SchedulePersist snapshots the session's profile and writes it back
// asynchronously. Writes are dropped when hydration has not completed
// so a half-loaded session can never clobber the stored record. When
// several persists race, only the last-scheduled document wins.
func (p *ProfileService) SchedulePersist(sess *Session) {
	sess.mu.Lock()
	if !sess.store.Hydrated() {
		sess.mu.Unlock()
		p.logger.Warn("Dropping persist before hydration completed", "uid", sess.UID())
		return
	}
	doc, err := sess.store.Encode()
	sess.mu.Unlock()
	if err != nil {
		p.logger.Error("Encode profile failed", "uid", sess.UID(), "error", err)
		return
	}

	seq := atomic.AddUint64(&sess.nextSeq, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sess.persistMu.Lock()
		defer sess.persistMu.Unlock()
		if seq <= sess.flushedSeq {
			// A newer document already landed.
			return
		}
		if err := p.records.SaveRecord(ctx, sess.UID(), doc); err != nil {
			// No retry and no rollback: the in-memory profile stays the
			// source of truth for the session.
			p.logger.ErrorContext(ctx, "Record persist failed", "uid", sess.UID(), "error", err)
			return
		}
		sess.flushedSeq = seq
		p.logger.DebugContext(ctx, "Record persisted", "uid", sess.UID(), "seq", seq)
	}()
}

// RequestExport queues the given month of a user for spreadsheet
// export. Fire-and-forget: without a broker it is a logged no-op.
func (p *ProfileService) RequestExport(ctx context.Context, uid string, year, month int) error {
	if p.amqpClient == nil {
		p.logger.WarnContext(ctx, "AMQP client not available, skipping export request",
			"uid", uid, "year", year, "month", month)
		return nil
	}
	if err := p.amqpClient.PublishSummaryExport(ctx, uid, year, month); err != nil {
		return fmt.Errorf("publish export request: %w", err)
	}
	return nil
}

// DeleteUserData removes the stored record for uid.
func (p *ProfileService) DeleteUserData(ctx context.Context, uid string) error {
	if err := p.records.DeleteRecord(ctx, uid); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
