package blackjack

import (
	"fmt"
	"sync"

	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
)

// DefaultPenetrationThreshold reshuffles once 25% or less of the shoe remains
const DefaultPenetrationThreshold = 0.25

const (
	ReasonPenetration = "penetration threshold reached"
	ReasonExhausted   = "shoe exhausted"
)

// ReshuffleEventKind says whether a reshuffle happened or is only needed
type ReshuffleEventKind string

const (
	ReshuffleOccurred ReshuffleEventKind = "RESHUFFLE_OCCURRED"
	ReshuffleRequired ReshuffleEventKind = "RESHUFFLE_REQUIRED"
)

// ReshuffleEvent is published to reshuffle listeners
type ReshuffleEvent struct {
	Kind      ReshuffleEventKind
	Reason    string
	Remaining int
	Total     int
}

// ReshuffleListener receives reshuffle events
type ReshuffleListener func(ReshuffleEvent)

// ShoeManagerOptions configures a ShoeManager
type ShoeManagerOptions struct {
	AutoReshuffle        bool
	PenetrationThreshold float64
	Logger               *logging.Logger
}

// ShoeManager owns the shoe and its reshuffle policy. Listeners are always
// called without the manager's lock held.
type ShoeManager struct {
	mu          sync.Mutex
	shoe        *Shoe
	unsubscribe func()
	auto        bool
	threshold   float64
	logger      *logging.Logger

	listeners map[int]ReshuffleListener
	nextID    int
	pending   []ReshuffleEvent
}

// NewShoeManager wraps shoe with the given reshuffle policy
func NewShoeManager(shoe *Shoe, opts ShoeManagerOptions) *ShoeManager {
	if opts.PenetrationThreshold <= 0 {
		opts.PenetrationThreshold = DefaultPenetrationThreshold
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}

	m := &ShoeManager{
		auto:      opts.AutoReshuffle,
		threshold: opts.PenetrationThreshold,
		logger:    opts.Logger,
		listeners: make(map[int]ReshuffleListener),
	}
	m.attach(shoe)
	return m
}

// Initialize replaces the managed shoe, detaching from the previous one
func (m *ShoeManager) Initialize(shoe *Shoe) {
	m.mu.Lock()
	m.attach(shoe)
	m.mu.Unlock()
}

func (m *ShoeManager) attach(shoe *Shoe) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.shoe = shoe
	shoe.watch = m.threshold
	m.unsubscribe = shoe.Subscribe(m.onShoeEvent)
	m.logger.Debug("Attached shoe of %d decks with %d cards remaining", shoe.DeckCount(), shoe.Remaining())
}

// onShoeEvent runs inside a shoe call, which only happens under m.mu
func (m *ShoeManager) onShoeEvent(event ShoeEvent) {
	if event.Kind != ShoeEventPenetration || m.auto {
		return
	}
	m.pending = append(m.pending, ReshuffleEvent{
		Kind:      ReshuffleRequired,
		Reason:    ReasonPenetration,
		Remaining: event.Remaining,
		Total:     event.Total,
	})
}

// Subscribe registers a reshuffle listener and returns a func that removes it
func (m *ShoeManager) Subscribe(listener ReshuffleListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Draw deals one card. An empty shoe is reshuffled first when auto-reshuffle
// is on; otherwise EMPTY_SHOE is returned until a manual reshuffle.
func (m *ShoeManager) Draw() (entities.Card, error) {
	m.mu.Lock()
	if m.shoe.Remaining() == 0 && m.auto {
		m.reshuffle(ReasonExhausted)
	}
	card, err := m.shoe.Draw()
	events := m.takePending()
	m.mu.Unlock()

	m.publish(events)
	return card, err
}

// HandleAutomaticReshuffle reshuffles and returns true iff auto-reshuffle is
// enabled and the threshold has been reached
func (m *ShoeManager) HandleAutomaticReshuffle() bool {
	m.mu.Lock()
	if !m.auto || !m.shoe.NeedsReshuffle(m.threshold) {
		m.mu.Unlock()
		return false
	}
	m.reshuffle(ReasonPenetration)
	events := m.takePending()
	m.mu.Unlock()

	m.publish(events)
	return true
}

// TriggerManualReshuffle reshuffles regardless of the threshold
func (m *ShoeManager) TriggerManualReshuffle(reason string) {
	m.mu.Lock()
	m.reshuffle(reason)
	events := m.takePending()
	m.mu.Unlock()

	m.publish(events)
}

func (m *ShoeManager) reshuffle(reason string) {
	before := m.shoe.Remaining()
	m.shoe.Reset()
	m.logger.Info("Reshuffled shoe (%s): %d cards remained, now %d", reason, before, m.shoe.Remaining())
	m.pending = append(m.pending, ReshuffleEvent{
		Kind:      ReshuffleOccurred,
		Reason:    reason,
		Remaining: m.shoe.Remaining(),
		Total:     m.shoe.Total(),
	})
}

func (m *ShoeManager) takePending() []ReshuffleEvent {
	events := m.pending
	m.pending = nil
	return events
}

func (m *ShoeManager) publish(events []ReshuffleEvent) {
	if len(events) == 0 {
		return
	}

	m.mu.Lock()
	listeners := make([]ReshuffleListener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, event := range events {
		if event.Kind == ReshuffleRequired {
			m.logger.Warn("Reshuffle required (%s) with auto-reshuffle disabled: %d of %d cards remain", event.Reason, event.Remaining, event.Total)
		}
		for _, l := range listeners {
			l(event)
		}
	}
}

// NeedsReshuffle reports whether the shoe has reached the penetration threshold
func (m *ShoeManager) NeedsReshuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shoe.NeedsReshuffle(m.threshold)
}

// EnsureAvailable fails with EMPTY_SHOE when fewer than n cards can be dealt
func (m *ShoeManager) EnsureAvailable(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auto || m.shoe.Remaining() >= n {
		return nil
	}
	return types.NewGameError(types.ErrEmptyShoe,
		fmt.Sprintf("%d cards needed but only %d remain; reshuffle required", n, m.shoe.Remaining()))
}

// Remaining returns the number of cards left in the shoe
func (m *ShoeManager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shoe.Remaining()
}

// Total returns the full size of the shoe
func (m *ShoeManager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shoe.Total()
}

// Threshold returns the penetration threshold
func (m *ShoeManager) Threshold() float64 {
	return m.threshold
}

// AutoReshuffle reports whether automatic reshuffling is enabled
func (m *ShoeManager) AutoReshuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auto
}

// SetAutoReshuffle enables or disables automatic reshuffling. Turning it off
// rearms the penetration signal, so a shoe already past the threshold reports
// a required reshuffle on its next draw.
func (m *ShoeManager) SetAutoReshuffle(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auto && !enabled {
		m.shoe.signalled = false
	}
	m.auto = enabled
}

// Arrange stacks cards on top of the shoe, see Shoe.Arrange
func (m *ShoeManager) Arrange(cards ...entities.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shoe.Arrange(cards...)
}
