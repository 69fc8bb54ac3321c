package retrieval

import (
	"errors"
	"testing"

	"github.com/caldera-ai/recall/internal/cache"
	"github.com/caldera-ai/recall/internal/embedding"
)

func TestRegistry_LazyPerTenant(t *testing.T) {
	created := 0
	reg := NewRegistry(func(tenant string) (*Engine, error) {
		created++
		c, err := cache.New(cache.Config{Dimensions: testDims})
		if err != nil {
			return nil, err
		}
		init := cache.NewInitializer(tenant, &memStore{}, c, nil)
		return NewEngine(tenant, c, init, embedding.NewMockEmbedder(testDims), nil, nil), nil
	})

	a1, err := reg.Engine("acme")
	if err != nil {
		t.Fatal(err)
	}
	a2, err := reg.Engine("acme")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Error("same tenant should reuse the engine")
	}
	b, err := reg.Engine("globex")
	if err != nil {
		t.Fatal(err)
	}
	if b == a1 {
		t.Error("tenants must not share engines")
	}
	if created != 2 {
		t.Errorf("factory called %d times, want 2", created)
	}

	tenants := reg.Tenants()
	if len(tenants) != 2 || tenants[0] != "acme" || tenants[1] != "globex" {
		t.Errorf("Tenants = %v", tenants)
	}
}

func TestRegistry_EmptyTenant(t *testing.T) {
	reg := NewRegistry(func(tenant string) (*Engine, error) { return nil, nil })
	if _, err := reg.Engine(""); err == nil {
		t.Error("empty tenant should be rejected")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(func(tenant string) (*Engine, error) { return nil, boom })
	if _, err := reg.Engine("acme"); !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
	if len(reg.Tenants()) != 0 {
		t.Error("failed creation must not register an engine")
	}
}
