package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caldera-ai/recall/internal/models"
)

// fakeStore is a VectorStore test double with a call counter on GetAllVectors.
type fakeStore struct {
	records []*models.KnowledgeRecord
	err     error
	delay   time.Duration
	calls   atomic.Int64
}

func (f *fakeStore) GetAllVectors(ctx context.Context, tenant string) ([]*models.KnowledgeRecord, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeStore) StoreVectors(ctx context.Context, tenant string, records []*models.KnowledgeRecord) error {
	return nil
}

func (f *fakeStore) DeleteBySource(ctx context.Context, tenant, sourceURL string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) CountVectors(ctx context.Context, tenant string) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeStore) Close() error { return nil }

func TestInitializer_SingleFlight(t *testing.T) {
	st := &fakeStore{
		records: []*models.KnowledgeRecord{rec("a", 1, 0), rec("b", 0, 1)},
		delay:   20 * time.Millisecond,
	}
	c, _ := New(Config{Dimensions: 2})
	init := NewInitializer("acme", st, c, nil)

	const callers = 10
	results := make([]*models.InitResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = init.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	if got := st.calls.Load(); got != 1 {
		t.Errorf("backing store loaded %d times, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].VectorsLoaded != 2 {
			t.Errorf("caller %d: VectorsLoaded = %d, want 2", i, results[i].VectorsLoaded)
		}
	}
}

func TestInitializer_FailureLeavesEmptyAndRetries(t *testing.T) {
	st := &fakeStore{err: errors.New("store down")}
	c, _ := New(Config{Dimensions: 2})
	init := NewInitializer("acme", st, c, nil)

	if _, err := init.Ensure(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
	if c.State() != StateEmpty {
		t.Errorf("state after failure = %s, want empty", c.State())
	}

	// Store recovers; a retry succeeds.
	st.err = nil
	st.records = []*models.KnowledgeRecord{rec("a", 1, 0)}
	res, err := init.Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.VectorsLoaded != 1 || !c.IsReady() {
		t.Errorf("retry: loaded=%d ready=%v", res.VectorsLoaded, c.IsReady())
	}
}

func TestInitializer_EmptyKnowledgeBase(t *testing.T) {
	st := &fakeStore{}
	c, _ := New(Config{Dimensions: 2})
	init := NewInitializer("acme", st, c, nil)

	res, err := init.Ensure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.VectorsLoaded != 0 {
		t.Errorf("VectorsLoaded = %d, want 0", res.VectorsLoaded)
	}
	if !c.IsReady() {
		t.Error("empty knowledge base should still reach ready")
	}
}

func TestInitializer_EnsureOnReadyIsNoop(t *testing.T) {
	st := &fakeStore{records: []*models.KnowledgeRecord{rec("a", 1, 0)}}
	c, _ := New(Config{Dimensions: 2})
	init := NewInitializer("acme", st, c, nil)

	if _, err := init.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := init.Ensure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := st.calls.Load(); got != 1 {
		t.Errorf("store loaded %d times, want 1", got)
	}
}

func TestInitializer_ContextTimeout(t *testing.T) {
	st := &fakeStore{
		records: []*models.KnowledgeRecord{rec("a", 1, 0)},
		delay:   200 * time.Millisecond,
	}
	c, _ := New(Config{Dimensions: 2})
	init := NewInitializer("acme", st, c, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := init.Ensure(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if c.State() != StateEmpty {
		t.Errorf("state after timeout = %s, want empty", c.State())
	}
}
