package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Thepalm86/tripweaver/internal/app/search"
	"github.com/Thepalm86/tripweaver/internal/domain"
	"github.com/Thepalm86/tripweaver/internal/ports/out/geocode"
)

// slowGeocoder answers each query with a single result named after the query,
// after an optional per-call delay, honoring ctx cancellation.
type slowGeocoder struct {
	mu       sync.Mutex
	delay    time.Duration
	started  int
	canceled int
}

func (g *slowGeocoder) Search(ctx context.Context, query string, _ int) ([]geocode.Result, error) {
	g.mu.Lock()
	g.started++
	delay := g.delay
	g.mu.Unlock()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		g.mu.Lock()
		g.canceled++
		g.mu.Unlock()
		return nil, ctx.Err()
	}
	return []geocode.Result{{
		Name:  query,
		Coord: domain.Coordinate{Lng: 1, Lat: 2},
	}}, nil
}

func (g *slowGeocoder) counts() (started, canceled int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started, g.canceled
}

func collect(ch chan []geocode.Result) func([]geocode.Result, error) {
	return func(results []geocode.Result, err error) {
		if err == nil {
			ch <- results
		}
	}
}

func TestQuery_DebounceCoalescesKeystrokes(t *testing.T) {
	t.Parallel()

	g := &slowGeocoder{}
	svc := search.NewService(g, nil)
	svc.SetDebounce(30 * time.Millisecond)

	got := make(chan []geocode.Result, 4)
	for _, q := range []string{"r", "ro", "rom", "rome"} {
		svc.Query(q, collect(got))
	}

	select {
	case results := <-got:
		if len(results) != 1 || results[0].Name != "rome" {
			t.Fatalf("results=%+v", results)
		}
	case <-time.After(time.Second):
		t.Fatal("no results delivered")
	}

	started, _ := g.counts()
	if started != 1 {
		t.Fatalf("geocoder ran %d times, want 1", started)
	}
	select {
	case extra := <-got:
		t.Fatalf("extra delivery: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQuery_SupersedingQueryCancelsInFlight(t *testing.T) {
	t.Parallel()

	g := &slowGeocoder{delay: 200 * time.Millisecond}
	svc := search.NewService(g, nil)
	svc.SetDebounce(5 * time.Millisecond)

	got := make(chan []geocode.Result, 2)
	svc.Query("paris", collect(got))
	time.Sleep(50 * time.Millisecond) // let the first fetch get in flight

	g.mu.Lock()
	g.delay = 0
	g.mu.Unlock()
	svc.Query("london", collect(got))

	select {
	case results := <-got:
		if len(results) != 1 || results[0].Name != "london" {
			t.Fatalf("stale query delivered: %+v", results)
		}
	case <-time.After(time.Second):
		t.Fatal("no results delivered")
	}

	_, canceled := g.counts()
	if canceled != 1 {
		t.Fatalf("in-flight fetch not canceled (canceled=%d)", canceled)
	}
	select {
	case extra := <-got:
		t.Fatalf("superseded query delivered: %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestQuery_EmptyClearsImmediately(t *testing.T) {
	t.Parallel()

	g := &slowGeocoder{}
	svc := search.NewService(g, nil)
	svc.SetDebounce(10 * time.Millisecond)

	delivered := false
	svc.Query("   ", func(results []geocode.Result, err error) {
		delivered = true
		if results != nil || err != nil {
			t.Fatalf("results=%v err=%v", results, err)
		}
	})
	if !delivered {
		t.Fatal("empty query did not deliver synchronously")
	}
	if started, _ := g.counts(); started != 0 {
		t.Fatalf("geocoder ran for empty query")
	}
}

func TestSearch_DirectLookup(t *testing.T) {
	t.Parallel()

	g := &slowGeocoder{}
	svc := search.NewService(g, nil)

	results, err := svc.Search(context.Background(), "berlin")
	if err != nil || len(results) != 1 || results[0].Name != "berlin" {
		t.Fatalf("results=%+v err=%v", results, err)
	}

	results, err = svc.Search(context.Background(), "")
	if err != nil || results != nil {
		t.Fatalf("empty search: results=%v err=%v", results, err)
	}
}
