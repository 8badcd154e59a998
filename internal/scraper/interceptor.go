package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rem79/fear-greed-index/internal/logger"
	"github.com/rem79/fear-greed-index/internal/types"
)

// CapturedPayload is the most recent indicator API response seen on the page
type CapturedPayload struct {
	URL        string
	Body       string
	CapturedAt time.Time
}

// Interceptor watches the page's network responses and keeps the most
// recent one that looks like the indicator API. Observe is called from the
// browser's event goroutine while the other stages run, so the slot is
// guarded by a mutex. Last write wins.
type Interceptor struct {
	rules Rules
	log   *logger.Logger

	mu   sync.Mutex
	last *CapturedPayload
}

// NewInterceptor creates an interceptor with an empty slot
func NewInterceptor(rules Rules, log *logger.Logger) *Interceptor {
	if log == nil {
		log = logger.Named("scraper")
	}
	return &Interceptor{rules: rules, log: log}
}

// Matches reports whether url carries the service marker and at least one
// of the path markers
func (i *Interceptor) Matches(url string) bool {
	u := strings.ToLower(url)
	if i.rules.ServiceMarker == "" || !strings.Contains(u, strings.ToLower(i.rules.ServiceMarker)) {
		return false
	}
	if len(i.rules.PathMarkers) == 0 {
		return true
	}
	for _, m := range i.rules.PathMarkers {
		if strings.Contains(u, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Observe records body if url matches and body is JSON. Anything else is
// silently dropped.
func (i *Interceptor) Observe(url string, body []byte) {
	if !i.Matches(url) {
		return
	}
	if !gjson.ValidBytes(body) {
		i.log.Debugw("ignoring non-JSON indicator response", "url", url, "bytes", len(body))
		return
	}

	p := &CapturedPayload{URL: url, Body: string(body), CapturedAt: time.Now()}

	i.mu.Lock()
	i.last = p
	i.mu.Unlock()

	i.log.Debugw("captured indicator response", "url", url, "bytes", len(body))
}

// Reset empties the slot. Called at the start of every run.
func (i *Interceptor) Reset() {
	i.mu.Lock()
	i.last = nil
	i.mu.Unlock()
}

// Last returns a copy of the captured payload, if any
func (i *Interceptor) Last() (CapturedPayload, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.last == nil {
		return CapturedPayload{}, false
	}
	return *i.last, true
}

func (i *Interceptor) Stage() Stage {
	return StageIntercepting
}

// Attempt extracts score and rating from the captured payload
func (i *Interceptor) Attempt(ctx context.Context) (types.Attempt, error) {
	p, ok := i.Last()
	if !ok {
		return types.NoData("network"), ErrNoMatchingPayload
	}

	res := extractPayload(p.Body, i.rules.IndicatorKey, "network")
	if res.attempt.Valid() {
		return res.attempt, nil
	}
	if res.rejected > 0 {
		return types.NoData("network"), fmt.Errorf("%s: %w", p.URL, ErrOutOfRangeScore)
	}
	return types.NoData("network"), fmt.Errorf("%s has no score field: %w", p.URL, ErrNoMatchingPayload)
}
