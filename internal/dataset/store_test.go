package dataset

import (
	"sync"
	"testing"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

func TestStoreSwap(t *testing.T) {
	s := NewStore(core.Dataset{Source: "demo"})
	if s.Source() != "demo" {
		t.Fatalf("initial source = %q", s.Source())
	}

	gen := s.Swap(core.Dataset{Source: "upload"})
	if gen != 1 {
		t.Fatalf("generation = %d", gen)
	}
	if s.Current().Source != "upload" {
		t.Fatalf("source after swap = %q", s.Current().Source)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(core.Dataset{Source: "demo"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Swap(core.Dataset{Source: "upload"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Current()
		}()
	}
	wg.Wait()
	if got := s.Source(); got != "upload" {
		t.Fatalf("source = %q", got)
	}
}
