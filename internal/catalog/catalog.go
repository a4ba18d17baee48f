package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signalsfoundry/geointel-engine/model"
)

var (
	// ErrElementExists indicates an orbital element ID is already catalogued.
	ErrElementExists = errors.New("orbital element already exists")
	// ErrElementNotFound indicates a requested orbital element is missing.
	ErrElementNotFound = errors.New("orbital element not found")
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventElementUpserted EventType = iota
	EventSamplesReplaced
)

// Event is emitted to subscribers when catalog contents change.
type Event struct {
	Type    EventType
	Element model.OrbitalElement
	Samples int
}

// ElementsRecorder receives element-count updates so the observability
// layer can expose a gauge; optional.
type ElementsRecorder interface {
	SetCatalogElements(n int)
}

// Catalog is an in-memory, thread-safe store for orbital elements and
// the most recently acquired sample batch. Data acquisition happens
// outside the core; whatever collaborator fetches elements/samples
// deposits them here for the refresh loop to read.
type Catalog struct {
	mu sync.RWMutex

	elements map[string]model.OrbitalElement
	samples  []model.SpatialSample

	subs      map[int]func(Event)
	nextSubID int
	metrics   ElementsRecorder
}

// Option customises Catalog construction.
type Option func(*Catalog)

// WithElementsRecorder attaches an optional element-count recorder.
func WithElementsRecorder(m ElementsRecorder) Option {
	return func(c *Catalog) {
		c.metrics = m
	}
}

// New constructs an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		elements: make(map[string]model.OrbitalElement),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// AddElement adds a new orbital element. It returns an error if the ID
// already exists or is empty.
func (c *Catalog) AddElement(el model.OrbitalElement) error {
	if strings.TrimSpace(el.ID) == "" {
		return fmt.Errorf("element ID is required")
	}

	c.mu.Lock()
	if _, exists := c.elements[el.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrElementExists, el.ID)
	}
	c.elements[el.ID] = el
	count := len(c.elements)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetCatalogElements(count)
	}
	// Notify subscribers outside the lock to avoid deadlocks.
	notify(subs, Event{Type: EventElementUpserted, Element: el})
	return nil
}

// UpsertElement inserts or replaces an element.
func (c *Catalog) UpsertElement(el model.OrbitalElement) error {
	if strings.TrimSpace(el.ID) == "" {
		return fmt.Errorf("element ID is required")
	}

	c.mu.Lock()
	c.elements[el.ID] = el
	count := len(c.elements)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetCatalogElements(count)
	}
	notify(subs, Event{Type: EventElementUpserted, Element: el})
	return nil
}

// GetElement returns the element with the given ID.
func (c *Catalog) GetElement(id string) (model.OrbitalElement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.elements[id]
	if !ok {
		return model.OrbitalElement{}, fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	return el, nil
}

// ListElements returns a snapshot slice of all catalogued elements.
func (c *Catalog) ListElements() []model.OrbitalElement {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.OrbitalElement, 0, len(c.elements))
	for _, el := range c.elements {
		res = append(res, el)
	}
	return res
}

// ReplaceSamples swaps in a freshly acquired observation window and
// notifies subscribers. The previous window is returned so callers can
// feed it to trend classification.
func (c *Catalog) ReplaceSamples(samples []model.SpatialSample) []model.SpatialSample {
	c.mu.Lock()
	prior := c.samples
	c.samples = append([]model.SpatialSample(nil), samples...)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventSamplesReplaced, Samples: len(samples)})
	return prior
}

// Samples returns a copy of the current observation window.
func (c *Catalog) Samples() []model.SpatialSample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.SpatialSample(nil), c.samples...)
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function. Subscriptions are keyed by id, so removing one
// never disturbs the others; unsubscribing twice is a no-op.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// subscribersLocked snapshots the callbacks under the lock so they can
// be invoked outside it.
func (c *Catalog) subscribersLocked() []func(Event) {
	snapshot := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		snapshot = append(snapshot, fn)
	}
	return snapshot
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		if sub != nil {
			sub(ev)
		}
	}
}
