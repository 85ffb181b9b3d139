// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decryption

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/danielhkuo/sealed-survey/fhe"
)

var testTable = fhe.NewDlogTable(1 << 10)

func setupService(t *testing.T, queueSize int) (*Service, *fhe.MemStore, *fhe.SecretKey) {
	t.Helper()
	key := fhe.GenerateSecretKey(rand.Reader)
	store := fhe.NewMemStore()
	return NewService(store, key, testTable, 2, queueSize), store, key
}

func putValue(t *testing.T, store *fhe.MemStore, key *fhe.SecretKey, n byte, value uint64, public bool) fhe.Handle {
	t.Helper()
	ctx := context.Background()
	h := common.BytesToHash([]byte{n})
	ct, _ := fhe.Encrypt(key.PublicKey(), value, rand.Reader)
	if err := store.Put(ctx, h, ct); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if public {
		if err := store.SetVisibility(ctx, h, fhe.Public); err != nil {
			t.Fatalf("SetVisibility failed: %v", err)
		}
	}
	return h
}

func waitDone(t *testing.T, svc *Service, id uuid.UUID) Result {
	t.Helper()
	done, err := svc.Done(id)
	if err != nil {
		t.Fatalf("Done failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for decryption")
	}
	res, err := svc.Result(id)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	return res
}

func TestResolvePublicHandles(t *testing.T) {
	svc, store, key := setupService(t, 8)
	handles := []fhe.Handle{
		putValue(t, store, key, 1, 0, true),
		putValue(t, store, key, 2, 1, true),
		putValue(t, store, key, 3, 7, true),
	}

	id, err := svc.Submit(handles)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	res, err := svc.Result(id)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if res.Status != StatusPending {
		t.Errorf("Expected pending before Run, got %s", res.Status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	res = waitDone(t, svc, id)
	if res.Status != StatusResolved {
		t.Fatalf("Expected resolved, got %s (%s)", res.Status, res.Reason)
	}
	want := []uint64{0, 1, 7}
	for i, v := range want {
		if res.Values[i] != v {
			t.Errorf("Value %d: expected %d, got %d", i, v, res.Values[i])
		}
	}
}

func TestRejectPrivateOrUnknownHandles(t *testing.T) {
	svc, store, key := setupService(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	tests := []struct {
		name    string
		handles []fhe.Handle
	}{
		{"private handle", []fhe.Handle{putValue(t, store, key, 1, 3, true), putValue(t, store, key, 2, 3, false)}},
		{"unknown handle", []fhe.Handle{common.HexToHash("0xdead")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.Submit(tt.handles)
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			res := waitDone(t, svc, id)
			if res.Status != StatusRejected {
				t.Errorf("Expected rejected, got %s", res.Status)
			}
			if len(res.Values) != 0 {
				t.Errorf("Expected no values, got %v", res.Values)
			}
		})
	}
}

func TestOutOfRangeFails(t *testing.T) {
	svc, store, key := setupService(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	id, err := svc.Submit([]fhe.Handle{putValue(t, store, key, 1, 1<<11, true)})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res := waitDone(t, svc, id); res.Status != StatusFailed {
		t.Errorf("Expected failed, got %s", res.Status)
	}
}

func TestCancelPending(t *testing.T) {
	svc, store, key := setupService(t, 8)
	id, err := svc.Submit([]fhe.Handle{putValue(t, store, key, 1, 1, true)})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Cancel(id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := svc.Cancel(id); !errors.Is(err, ErrNotPending) {
		t.Errorf("Expected ErrNotPending on second cancel, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	res := waitDone(t, svc, id)
	if res.Status != StatusCancelled {
		t.Errorf("Expected cancelled, got %s", res.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := setupService(t, 1)

	if _, err := svc.Submit(nil); !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("Expected ErrEmptyRequest, got %v", err)
	}
	if _, err := svc.Submit(make([]fhe.Handle, MaxHandles+1)); !errors.Is(err, ErrTooManyHandles) {
		t.Errorf("Expected ErrTooManyHandles, got %v", err)
	}

	h := []fhe.Handle{common.HexToHash("0x01")}
	if _, err := svc.Submit(h); err != nil {
		t.Fatalf("First submit failed: %v", err)
	}
	if _, err := svc.Submit(h); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}

	if _, err := svc.Result(uuid.New()); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("Expected ErrUnknownRequest, got %v", err)
	}
}

func TestShutdownFailsPending(t *testing.T) {
	svc, store, key := setupService(t, 8)
	id, err := svc.Submit([]fhe.Handle{putValue(t, store, key, 1, 1, true)})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Run(ctx)

	res, err := svc.Result(id)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if res.Status != StatusResolved && res.Status != StatusFailed {
		t.Errorf("Expected request to leave pending on shutdown, got %s", res.Status)
	}
}

func retained(svc *Service) int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.requests)
}

func TestSettledRequestsAreCapped(t *testing.T) {
	svc, store, key := setupService(t, 8)
	svc.maxRetained = 3
	h := putValue(t, store, key, 1, 2, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	var ids []uuid.UUID
	for i := 0; i < 50; i++ {
		id, err := svc.Submit([]fhe.Handle{h})
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		waitDone(t, svc, id)
		ids = append(ids, id)
	}

	if n := retained(svc); n != 3 {
		t.Errorf("Expected 3 retained requests, got %d", n)
	}
	if _, err := svc.Result(ids[0]); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("Expected oldest request to be dropped, got %v", err)
	}
	if res, err := svc.Result(ids[len(ids)-1]); err != nil || res.Status != StatusResolved {
		t.Errorf("Expected newest request to stay readable, got %v (%v)", res.Status, err)
	}
}

// testClock is a settable clock for retention tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSettledRequestsExpire(t *testing.T) {
	svc, store, key := setupService(t, 8)
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	svc.now = clock.Now
	svc.retention = time.Minute
	svc.sweepEvery = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	id, err := svc.Submit([]fhe.Handle{putValue(t, store, key, 1, 4, true)})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res := waitDone(t, svc, id); res.Status != StatusResolved {
		t.Fatalf("Expected resolved, got %s", res.Status)
	}

	// Within the window the result stays readable across sweeps.
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Result(id); err != nil {
		t.Fatalf("Expected result within retention, got %v", err)
	}

	clock.Advance(time.Minute + time.Second)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := svc.Result(id); errors.Is(err, ErrUnknownRequest) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Settled request was never dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := retained(svc); n != 0 {
		t.Errorf("Expected no retained requests, got %d", n)
	}
}

func TestPendingRequestsAreKept(t *testing.T) {
	svc, _, _ := setupService(t, 8)

	pending, err := svc.Submit([]fhe.Handle{common.HexToHash("0x01")})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	cancelled, err := svc.Submit([]fhe.Handle{common.HexToHash("0x02")})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Cancel(cancelled); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	svc.mu.Lock()
	svc.pruneLocked(svc.now().Add(time.Hour))
	svc.mu.Unlock()

	if _, err := svc.Result(cancelled); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("Expected cancelled request to be dropped, got %v", err)
	}
	if res, err := svc.Result(pending); err != nil || res.Status != StatusPending {
		t.Errorf("Expected pending request to survive pruning, got %v (%v)", res.Status, err)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	svc, store, key := setupService(t, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Run(ctx)

	id, err := svc.Submit([]fhe.Handle{putValue(t, store, key, 1, 1, true)})
	if !errors.Is(err, ErrServiceStopped) {
		t.Fatalf("Expected ErrServiceStopped, got id=%s err=%v", id, err)
	}
	if n := retained(svc); n != 0 {
		t.Errorf("Expected nothing queued after shutdown, got %d requests", n)
	}
}
