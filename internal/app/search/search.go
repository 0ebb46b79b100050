// Package search runs debounced, self-superseding place searches for the
// destination and base-location autocomplete boxes.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Thepalm86/tripweaver/internal/ports/out/geocode"
)

const (
	defaultDebounce = 250 * time.Millisecond
	defaultLimit    = 8
)

// Service wraps a geocoder with keystroke semantics: each new query cancels
// the prior in-flight fetch, and results are only delivered for the latest
// query so a slow early response can never overwrite a fast later one.
type Service struct {
	geocoder geocode.Geocoder
	log      *logrus.Logger
	debounce time.Duration
	limit    int

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewService(geocoder geocode.Geocoder, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		geocoder: geocoder,
		log:      log,
		debounce: defaultDebounce,
		limit:    defaultLimit,
	}
}

// SetDebounce overrides the keystroke debounce interval.
func (s *Service) SetDebounce(d time.Duration) { s.debounce = d }

// Query schedules a search for the given text. The callback fires at most
// once, and only if no newer query has been issued by then. An empty query
// clears results immediately and cancels anything in flight.
func (s *Service) Query(q string, deliver func(results []geocode.Result, err error)) {
	q = strings.TrimSpace(q)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if q == "" {
		s.mu.Unlock()
		deliver(nil, nil)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(gen, q, deliver)
	})
	s.mu.Unlock()
}

func (s *Service) run(gen uint64, q string, deliver func([]geocode.Result, error)) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.geocoder.Search(ctx, q, s.limit)

	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if !current {
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.WithError(err).WithField("query", q).Warn("place search failed")
		deliver(nil, err)
		return
	}
	deliver(results, nil)
}

// Search performs one immediate, non-debounced lookup. It is the entry point
// for request/response callers that carry their own context.
func (s *Service) Search(ctx context.Context, q string) ([]geocode.Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.geocoder.Search(ctx, q, s.limit)
}
