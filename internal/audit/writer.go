// Package audit persists a fire-and-forget record of room lifecycle
// events (created, cancelled, host disconnected) to Postgres for
// operational review. It is not message history or replay: it never
// records relayed payloads, only the lifecycle events admin.Handlers
// and the session state machines already produce.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
)

const (
	maxRetries     = 5
	initialBackoff = 100 * time.Millisecond
	batchSize      = 50
	flushInterval  = 500 * time.Millisecond
	queueDepth     = 1000
)

// Event is a single room lifecycle record.
type Event struct {
	Kind     string
	RoomID   domain.RoomId
	HostID   domain.UserId
	RoomType domain.RoomType
	Reason   string
	Occurred time.Time
}

// Writer batches lifecycle events and persists them to Postgres.
type Writer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New opens a pgx pool against dsn.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Writer, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}
	return &Writer{
		pool:   pool,
		logger: logger,
		queue:  make(chan Event, queueDepth),
		done:   make(chan struct{}),
	}, nil
}

// Start begins the batch-write loop.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop flushes any pending events and closes the pool.
func (w *Writer) Stop() {
	close(w.done)
	w.wg.Wait()
	w.pool.Close()
}

func (w *Writer) enqueue(e Event) {
	select {
	case w.queue <- e:
	case <-w.done:
	default:
		w.logger.Warn("audit queue full, dropping event", "kind", e.Kind, "room_id", e.RoomID.String())
	}
}

// RecordRoomCreated implements admin.AuditSink.
func (w *Writer) RecordRoomCreated(roomID domain.RoomId, hostID domain.UserId, roomType domain.RoomType) {
	w.enqueue(Event{Kind: "room_created", RoomID: roomID, HostID: hostID, RoomType: roomType})
}

// RecordRoomCancelled implements admin.AuditSink.
func (w *Writer) RecordRoomCancelled(roomID domain.RoomId) {
	w.enqueue(Event{Kind: "room_cancelled", RoomID: roomID})
}

// RecordHostDisconnected records a non-admin-driven room teardown.
func (w *Writer) RecordHostDisconnected(roomID domain.RoomId, reason string) {
	w.enqueue(Event{Kind: "host_disconnected", RoomID: roomID, Reason: reason})
}

func (w *Writer) loop(ctx context.Context) {
	defer w.wg.Done()

	batch := make([]Event, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.writeBatch(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			for drained := false; !drained; {
				select {
				case e := <-w.queue:
					batch = append(batch, e)
				default:
					drained = true
				}
			}
			flush()
			return
		case e := <-w.queue:
			batch = append(batch, e)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(flushInterval)
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (w *Writer) writeBatch(ctx context.Context, batch []Event) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		tx, err := w.pool.Begin(ctx)
		if err != nil {
			lastErr = err
			time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(attempt))))
			continue
		}

		ok := true
		for _, e := range batch {
			_, err := tx.Exec(ctx,
				`INSERT INTO room_audit_log (kind, room_id, host_id, room_type, reason) VALUES ($1, $2, $3, $4, $5)`,
				e.Kind, e.RoomID.String(), e.HostID.String(), string(e.RoomType), e.Reason,
			)
			if err != nil {
				w.logger.Error("audit insert failed", "kind", e.Kind, "room_id", e.RoomID.String(), "err", err)
				tx.Rollback(ctx)
				lastErr = err
				ok = false
				break
			}
		}

		if ok {
			if err := tx.Commit(ctx); err != nil {
				lastErr = err
				time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(attempt))))
				continue
			}
			return
		}

		time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(attempt))))
	}

	if lastErr != nil {
		w.logger.Error("failed to persist audit batch after retries", "batch_size", len(batch), "err", lastErr)
	}
}
