// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decryption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/sealed-survey/fhe"
)

// MaxHandles bounds a single request.
const MaxHandles = 256

const (
	// DefaultRetention is how long a finished request stays readable.
	DefaultRetention = 10 * time.Minute
	// DefaultMaxRetained caps finished requests kept at once; the oldest go first.
	DefaultMaxRetained = 4096
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrEmptyRequest    = errors.New("no handles to decrypt")
	ErrTooManyHandles  = errors.New("too many handles in one request")
	ErrQueueFull       = errors.New("decryption queue is full")
	ErrUnknownRequest  = errors.New("unknown decryption request")
	ErrNotPending      = errors.New("decryption request is no longer pending")
	ErrServiceStopped  = errors.New("decryption service stopped")
	errNotPublic       = errors.New("handle is not publicly decryptable")
)

// Result is a snapshot of a request. Values[k] is the cleartext of Handles[k]
// once Status is StatusResolved.
type Result struct {
	ID          uuid.UUID
	Status      Status
	Handles     []fhe.Handle
	Values      []uint64
	Reason      string
	SubmittedAt time.Time
	CompletedAt time.Time
}

type request struct {
	Result
	done chan struct{}
}

// Service resolves publicly decryptable handles to cleartext in the
// background. Submitting never blocks on decryption; callers poll Result or
// wait on Done. Pending requests stay until they settle or are cancelled;
// settled ones are dropped after the retention window or once more than
// the retention cap have settled.
type Service struct {
	store   fhe.Store
	key     *fhe.SecretKey
	table   *fhe.DlogTable
	workers int
	queue   chan *request

	retention   time.Duration
	maxRetained int
	sweepEvery  time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	requests map[uuid.UUID]*request
	finished []uuid.UUID // settled requests, oldest first
	stopped  bool
}

func NewService(store fhe.Store, key *fhe.SecretKey, table *fhe.DlogTable, workers, queueSize int) *Service {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Service{
		store:    store,
		key:      key,
		table:    table,
		workers:  workers,
		queue:    make(chan *request, queueSize),

		retention:   DefaultRetention,
		maxRetained: DefaultMaxRetained,
		sweepEvery:  DefaultRetention / 2,
		now:         time.Now,

		requests: make(map[uuid.UUID]*request),
	}
}

// Submit queues handles for decryption and returns the request id.
func (s *Service) Submit(handles []fhe.Handle) (uuid.UUID, error) {
	if len(handles) == 0 {
		return uuid.Nil, ErrEmptyRequest
	}
	if len(handles) > MaxHandles {
		return uuid.Nil, fmt.Errorf("%w: %d > %d", ErrTooManyHandles, len(handles), MaxHandles)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return uuid.Nil, ErrServiceStopped
	}
	req := &request{
		Result: Result{
			ID:          uuid.New(),
			Status:      StatusPending,
			Handles:     append([]fhe.Handle(nil), handles...),
			SubmittedAt: s.now(),
		},
		done: make(chan struct{}),
	}
	s.requests[req.ID] = req
	s.mu.Unlock()

	select {
	case s.queue <- req:
		return req.ID, nil
	default:
		s.mu.Lock()
		delete(s.requests, req.ID)
		s.mu.Unlock()
		return uuid.Nil, ErrQueueFull
	}
}

// Result returns the current state of request id. Requests dropped after
// settling report ErrUnknownRequest.
func (s *Service) Result(id uuid.UUID) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return Result{}, ErrUnknownRequest
	}
	res := req.Result
	res.Handles = append([]fhe.Handle(nil), req.Handles...)
	res.Values = append([]uint64(nil), req.Values...)
	return res, nil
}

// Done returns a channel closed when request id leaves the pending state.
func (s *Service) Done(id uuid.UUID) (<-chan struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrUnknownRequest
	}
	return req.done, nil
}

// Cancel abandons a pending request.
func (s *Service) Cancel(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrUnknownRequest
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}
	s.completeLocked(req, StatusCancelled, nil, "cancelled by caller")
	return nil
}

// Run processes queued requests with the configured number of workers until
// ctx is cancelled. Requests still pending at shutdown are marked failed, and
// later submissions get ErrServiceStopped.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.janitor(ctx)
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, req := range s.requests {
		if req.Status == StatusPending {
			s.completeLocked(req, StatusFailed, nil, ErrServiceStopped.Error())
		}
	}
}

// janitor drops settled requests once they age past the retention window.
func (s *Service) janitor(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if n := s.pruneLocked(s.now().Add(-s.retention)); n > 0 {
				slog.Debug("dropped settled decryption requests", "count", n)
			}
			s.mu.Unlock()
		}
	}
}

// pruneLocked forgets settled requests that completed at or before cutoff,
// and the oldest ones beyond the retention cap. It returns how many it dropped.
func (s *Service) pruneLocked(cutoff time.Time) int {
	dropped := 0
	for len(s.finished) > 0 {
		req, ok := s.requests[s.finished[0]]
		if ok && len(s.finished) <= s.maxRetained && req.CompletedAt.After(cutoff) {
			break
		}
		delete(s.requests, s.finished[0])
		s.finished = s.finished[1:]
		dropped++
	}
	return dropped
}

func (s *Service) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			s.process(ctx, req)
		}
	}
}

func (s *Service) process(ctx context.Context, req *request) {
	s.mu.RLock()
	pending := req.Status == StatusPending
	s.mu.RUnlock()
	if !pending {
		return
	}

	values, status, err := s.decrypt(ctx, req.Handles)

	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status != StatusPending {
		return
	}

	reason := ""
	if err != nil {
		reason = err.Error()
		slog.Warn("decryption request not resolved", "request_id", req.ID, "status", status, "error", err)
	} else {
		slog.Info("decryption request resolved", "request_id", req.ID, "handles", len(req.Handles))
	}
	s.completeLocked(req, status, values, reason)
}

func (s *Service) decrypt(ctx context.Context, handles []fhe.Handle) ([]uint64, Status, error) {
	values := make([]uint64, len(handles))
	for i, h := range handles {
		rec, err := s.store.Get(ctx, h)
		if errors.Is(err, fhe.ErrUnknownHandle) {
			return nil, StatusRejected, err
		}
		if err != nil {
			return nil, StatusFailed, err
		}
		if rec.Visibility != fhe.Public {
			return nil, StatusRejected, fmt.Errorf("%w: %s", errNotPublic, h.Hex())
		}

		v, err := s.key.Decrypt(rec.Ciphertext, s.table)
		if err != nil {
			return nil, StatusFailed, fmt.Errorf("failed to decrypt %s: %w", h.Hex(), err)
		}
		values[i] = v
	}
	return values, StatusResolved, nil
}

func (s *Service) completeLocked(req *request, status Status, values []uint64, reason string) {
	req.Status = status
	req.Values = values
	req.Reason = reason
	req.CompletedAt = s.now()
	close(req.done)

	s.finished = append(s.finished, req.ID)
	s.pruneLocked(time.Time{})
}
