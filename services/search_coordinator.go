package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"go.uber.org/zap"
)

const (
	// DefaultSearchDebounce is how long input must stay unchanged before a search is dispatched
	DefaultSearchDebounce = 300 * time.Millisecond
	// DefaultRequestTimeout bounds a single dispatched search
	DefaultRequestTimeout = 5 * time.Second
)

// Timer is the part of *time.Timer the coordinator needs
type Timer interface {
	Stop() bool
}

// Clock schedules debounce callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClinicScope yields the clinic searches are restricted to, or "" when none is resolved
type ClinicScope interface {
	ClinicID() string
}

// StaticScope is a fixed clinic id
type StaticScope string

func (s StaticScope) ClinicID() string {
	return string(s)
}

type searchPhase int

const (
	phaseIdle searchPhase = iota
	phasePending
	phaseDispatched
)

func (p searchPhase) String() string {
	switch p {
	case phasePending:
		return "pending"
	case phaseDispatched:
		return "dispatched"
	default:
		return "idle"
	}
}

// SearchState is a snapshot of the search surface
type SearchState struct {
	Query   string
	Results []SearchResult
	Loading bool
	// Searched is true once a real query has completed; it separates
	// "no matches" from "nothing typed yet".
	Searched bool
	Open     bool
}

// NoMatches reports a completed search that found nothing
func (s SearchState) NoMatches() bool {
	return s.Searched && !s.Loading && len(s.Results) == 0
}

// SearchKeyMap holds the global search shortcuts
type SearchKeyMap struct {
	Toggle key.Binding
	Close  key.Binding
}

func DefaultSearchKeyMap() SearchKeyMap {
	return SearchKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("ctrl+k", "cmd+k"),
			key.WithHelp("ctrl+k", "search"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

type CoordinatorOption func(*SearchCoordinator)

func WithClock(clock Clock) CoordinatorOption {
	return func(c *SearchCoordinator) { c.clock = clock }
}

func WithDebounce(d time.Duration) CoordinatorOption {
	return func(c *SearchCoordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

func WithRequestTimeout(d time.Duration) CoordinatorOption {
	return func(c *SearchCoordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSearchListener is called with a fresh snapshot after every state change
func WithSearchListener(fn func(SearchState)) CoordinatorOption {
	return func(c *SearchCoordinator) { c.onChange = fn }
}

func WithKeyMap(keys SearchKeyMap) CoordinatorOption {
	return func(c *SearchCoordinator) { c.keys = keys }
}

// SearchCoordinator turns keystrokes into settled, clinic-scoped searches.
//
// Each keystroke restarts the debounce timer. When the timer fires the query is
// dispatched under a new sequence number; a response is only published if its
// sequence is still the latest, and a superseded dispatch has its context cancelled.
type SearchCoordinator struct {
	searcher  Searcher
	scope     ClinicScope
	navigator Navigator
	logger    *zap.Logger
	clock     Clock
	delay     time.Duration
	timeout   time.Duration
	keys      SearchKeyMap
	onChange  func(SearchState)

	mu       sync.Mutex
	phase    searchPhase
	timer    Timer
	seq      uint64
	cancel   context.CancelFunc
	stopped  bool
	query    string
	results  []SearchResult
	loading  bool
	searched bool
	open     bool
}

func NewSearchCoordinator(searcher Searcher, scope ClinicScope, navigator Navigator, logger *zap.Logger, opts ...CoordinatorOption) *SearchCoordinator {
	c := &SearchCoordinator{
		searcher:  searcher,
		scope:     scope,
		navigator: navigator,
		logger:    logger,
		clock:     systemClock{},
		delay:     DefaultSearchDebounce,
		timeout:   DefaultRequestTimeout,
		keys:      DefaultSearchKeyMap(),
		results:   []SearchResult{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery records new input and restarts the debounce window
func (c *SearchCoordinator) SetQuery(query string) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.query = query
	c.supersedeLocked()

	if strings.TrimSpace(query) == "" || c.scope.ClinicID() == "" {
		c.clearLocked()
		state := c.stateLocked()
		c.mu.Unlock()
		c.notify(state)
		return
	}

	c.phase = phasePending
	seq := c.seq
	c.timer = c.clock.AfterFunc(c.delay, func() { c.dispatch(seq) })
	state := c.stateLocked()
	c.mu.Unlock()
	c.notify(state)
}

func (c *SearchCoordinator) dispatch(seq uint64) {
	c.mu.Lock()
	if c.stopped || seq != c.seq || c.phase != phasePending {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	clinicID := c.scope.ClinicID()
	if clinicID == "" {
		c.clearLocked()
		state := c.stateLocked()
		c.mu.Unlock()
		c.notify(state)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.phase = phaseDispatched
	c.loading = true
	query := strings.TrimSpace(c.query)
	state := c.stateLocked()
	c.mu.Unlock()
	c.notify(state)

	results := c.searcher.Search(ctx, clinicID, query)
	cancel()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale search response", zap.Uint64("seq", seq), zap.String("query", query))
		return
	}
	c.cancel = nil
	c.phase = phaseIdle
	c.loading = false
	c.searched = true
	c.results = results
	state = c.stateLocked()
	c.mu.Unlock()
	c.notify(state)
}

// supersedeLocked invalidates any pending timer or in-flight dispatch
func (c *SearchCoordinator) supersedeLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *SearchCoordinator) clearLocked() {
	c.phase = phaseIdle
	c.results = []SearchResult{}
	c.loading = false
	c.searched = false
}

func (c *SearchCoordinator) stateLocked() SearchState {
	results := make([]SearchResult, len(c.results))
	copy(results, c.results)
	return SearchState{
		Query:    c.query,
		Results:  results,
		Loading:  c.loading,
		Searched: c.searched,
		Open:     c.open,
	}
}

func (c *SearchCoordinator) notify(state SearchState) {
	if c.onChange != nil {
		c.onChange(state)
	}
}

// State returns the current snapshot
func (c *SearchCoordinator) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Phase reports the debounce state machine position
func (c *SearchCoordinator) Phase() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase.String()
}

// Select navigates to the chosen result, closes the surface and clears the query
func (c *SearchCoordinator) Select(result SearchResult) {
	c.navigator.Navigate(RouteForSearchResult(result))

	c.mu.Lock()
	c.open = false
	c.query = ""
	c.supersedeLocked()
	c.clearLocked()
	state := c.stateLocked()
	c.mu.Unlock()
	c.notify(state)
}

// Toggle flips the open state of the search surface
func (c *SearchCoordinator) Toggle() {
	c.mu.Lock()
	c.open = !c.open
	state := c.stateLocked()
	c.mu.Unlock()
	c.notify(state)
}

// SetOpen opens or closes the search surface
func (c *SearchCoordinator) SetOpen(open bool) {
	c.mu.Lock()
	if c.open == open {
		c.mu.Unlock()
		return
	}
	c.open = open
	state := c.stateLocked()
	c.mu.Unlock()
	c.notify(state)
}

func (c *SearchCoordinator) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// HandleKey applies the global shortcuts. It returns true only when the key was
// one of them, in which case the caller must not process it further.
func (c *SearchCoordinator) HandleKey(k fmt.Stringer) bool {
	switch {
	case key.Matches(k, c.keys.Toggle):
		c.Toggle()
		return true
	case key.Matches(k, c.keys.Close) && c.IsOpen():
		c.SetOpen(false)
		return true
	}
	return false
}

// KeyMap exposes the bindings for help rendering
func (c *SearchCoordinator) KeyMap() SearchKeyMap {
	return c.keys
}

// Stop cancels any pending or in-flight search. Further input is ignored.
func (c *SearchCoordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
	c.stopped = true
}
