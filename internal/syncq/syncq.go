// Package syncq queues anonymized health records and ships them to the
// aggregation service: batched first, per-record on batch failure, with a
// bounded retry budget per record.
package syncq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
	"github.com/radheshpai87/aurahealth-core/internal/wire"
)

const (
	// DefaultInterval is the scheduled dispatch period.
	DefaultInterval = 5 * time.Minute
	// MaxRetries is the per-record attempt budget before dead-lettering.
	MaxRetries = 5

	pingTimeout   = 5 * time.Second
	batchTimeout  = 15 * time.Second
	recordTimeout = 10 * time.Second
)

// Config locates the aggregation service.
type Config struct {
	BaseURL  string
	Interval time.Duration
}

// Report summarizes one dispatch pass.
type Report struct {
	// Skipped is set when another dispatch was already in flight.
	Skipped   bool
	Attempted int
	Sent      int
	Failed    int
	Dropped   int
	Pending   int
}

// Service is the background uploader for anonymized records.
type Service interface {
	// Enqueue appends to the outbound queue and to the retained records
	// list, where the record stays visible with its synced flag.
	Enqueue(ctx context.Context, rec model.HealthRecord) error
	Pending(ctx context.Context) (int, error)
	Records(ctx context.Context) ([]model.HealthRecord, error)
	DeadLetters(ctx context.Context) ([]model.HealthRecord, error)
	LastSync(ctx context.Context) (*time.Time, error)

	// Available probes GET /ping with a bounded timeout. Never cached.
	Available(ctx context.Context) bool

	// SyncNow runs one dispatch pass, unless one is already running.
	SyncNow(ctx context.Context) (Report, error)

	// Run dispatches immediately and then on every interval tick until
	// the context is cancelled.
	Run(ctx context.Context)
}

type ServiceImpl struct {
	store    *storage.Scoped
	base     string
	http     *http.Client
	interval time.Duration
	log      *zap.Logger
	inFlight atomic.Bool

	// mu serializes read-modify-write cycles on the queue and records
	// lists, so an Enqueue racing a dispatch write-back is never lost.
	mu sync.Mutex
}

var _ Service = (*ServiceImpl)(nil)

func NewService(store *storage.Scoped, cfg Config, log *zap.Logger) *ServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &ServiceImpl{
		store:    store,
		base:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:     &http.Client{Timeout: batchTimeout},
		interval: interval,
		log:      log,
	}
}

func (s *ServiceImpl) Enqueue(ctx context.Context, rec model.HealthRecord) error {
	rec.Retries = 0
	rec.Synced = false

	s.mu.Lock()
	defer s.mu.Unlock()

	var queue []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeySyncQueue, &queue); err != nil {
		return err
	}
	queue = append(queue, rec)
	if err := s.store.PutJSON(ctx, storage.KeySyncQueue, queue); err != nil {
		return err
	}

	var records []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeyHealthRecords, &records); err != nil {
		return err
	}
	records = append(records, rec)
	return s.store.PutJSON(ctx, storage.KeyHealthRecords, records)
}

func (s *ServiceImpl) Pending(ctx context.Context) (int, error) {
	var queue []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeySyncQueue, &queue); err != nil {
		return 0, err
	}
	return len(queue), nil
}

func (s *ServiceImpl) Records(ctx context.Context) ([]model.HealthRecord, error) {
	var records []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeyHealthRecords, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *ServiceImpl) DeadLetters(ctx context.Context) ([]model.HealthRecord, error) {
	var dead []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeyDeadLetter, &dead); err != nil {
		return nil, err
	}
	return dead, nil
}

func (s *ServiceImpl) LastSync(ctx context.Context) (*time.Time, error) {
	var t time.Time
	found, err := s.store.GetJSON(ctx, storage.KeyLastSync, &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

func (s *ServiceImpl) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Debug("aggregation service unreachable", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (s *ServiceImpl) SyncNow(ctx context.Context) (Report, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Report{Skipped: true}, nil
	}
	defer s.inFlight.Store(false)
	return s.dispatch(ctx)
}

func (s *ServiceImpl) Run(ctx context.Context) {
	s.runOnce(ctx, "launch")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, "scheduled")
		}
	}
}

func (s *ServiceImpl) runOnce(ctx context.Context, trigger string) {
	rep, err := s.SyncNow(ctx)
	if err != nil {
		s.log.Warn("sync dispatch failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	if rep.Attempted > 0 {
		s.log.Info("sync dispatch",
			zap.String("trigger", trigger),
			zap.Int("sent", rep.Sent),
			zap.Int("failed", rep.Failed),
			zap.Int("dropped", rep.Dropped),
			zap.Int("pending", rep.Pending))
	}
}

// dispatch drains the queue in enqueue order: each batch of up to 100 is
// tried as one POST, then record by record when the batch fails. Records
// that exhaust their retry budget move to the dead-letter list but stay in
// the retained records list as synced=false.
func (s *ServiceImpl) dispatch(ctx context.Context) (Report, error) {
	var queue []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeySyncQueue, &queue); err != nil {
		return Report{}, err
	}
	if len(queue) == 0 {
		return Report{}, nil
	}

	rep := Report{Attempted: len(queue)}
	var survivors, dropped []model.HealthRecord
	syncedIDs := map[string]bool{}

	for start := 0; start < len(queue); start += wire.MaxBatchSize {
		batch := queue[start:min(start+wire.MaxBatchSize, len(queue))]

		err := s.post(ctx, batch, batchTimeout)
		if err == nil {
			for _, rec := range batch {
				syncedIDs[rec.ID] = true
			}
			rep.Sent += len(batch)
			continue
		}
		s.log.Warn("batch upload failed, retrying per record",
			zap.Int("size", len(batch)), zap.Error(err))

		for _, rec := range batch {
			if err := s.post(ctx, []model.HealthRecord{rec}, recordTimeout); err == nil {
				syncedIDs[rec.ID] = true
				rep.Sent++
				continue
			}
			rec.Retries++
			if rec.Retries >= MaxRetries {
				dropped = append(dropped, rec)
				rep.Dropped++
				continue
			}
			survivors = append(survivors, rec)
			rep.Failed++
		}
	}
	pending, err := s.writeBack(ctx, queue, survivors)
	if err != nil {
		return rep, err
	}
	rep.Pending = pending

	if len(syncedIDs) > 0 {
		if err := s.markSynced(ctx, syncedIDs); err != nil {
			return rep, err
		}
		if err := s.store.PutJSON(ctx, storage.KeyLastSync, time.Now().UTC()); err != nil {
			return rep, err
		}
	}
	if len(dropped) > 0 {
		var dead []model.HealthRecord
		if _, err := s.store.GetJSON(ctx, storage.KeyDeadLetter, &dead); err != nil {
			return rep, err
		}
		dead = append(dead, dropped...)
		if err := s.store.PutJSON(ctx, storage.KeyDeadLetter, dead); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// writeBack replaces the queue with the dispatch survivors while keeping
// every record enqueued after the snapshot was taken, in enqueue order.
// Returns the pending count after the merge.
func (s *ServiceImpl) writeBack(ctx context.Context, snapshot, survivors []model.HealthRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapIDs := make(map[string]bool, len(snapshot))
	for _, rec := range snapshot {
		snapIDs[rec.ID] = true
	}
	var current []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeySyncQueue, &current); err != nil {
		return 0, err
	}
	for _, rec := range current {
		if !snapIDs[rec.ID] {
			survivors = append(survivors, rec)
		}
	}
	if err := s.store.PutJSON(ctx, storage.KeySyncQueue, survivors); err != nil {
		return 0, err
	}
	return len(survivors), nil
}

func (s *ServiceImpl) markSynced(ctx context.Context, ids map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []model.HealthRecord
	if _, err := s.store.GetJSON(ctx, storage.KeyHealthRecords, &records); err != nil {
		return err
	}
	for i := range records {
		if ids[records[i].ID] {
			records[i].Synced = true
		}
	}
	return s.store.PutJSON(ctx, storage.KeyHealthRecords, records)
}

func (s *ServiceImpl) post(ctx context.Context, batch []model.HealthRecord, timeout time.Duration) error {
	body, err := json.Marshal(wire.SyncRequest{Records: wire.ToWireRecords(batch)})
	if err != nil {
		return fmt.Errorf("marshal sync request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: sync", errs.ErrTimeout)
		}
		return fmt.Errorf("%w: sync: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: sync status %d", errs.ErrTransport, resp.StatusCode)
	}
	return nil
}
