// Package deck implements the swipe card deck: a gesture state machine over an
// ordered list of packages. Live drag offsets are tracked separately from the
// committed decision so a like is persisted exactly once per card, at commit.
package deck

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/njprem/travelswipe/internal/domain"
)

var (
	ErrGestureInProgress = errors.New("deck: a gesture is already in progress")
	ErrNoGesture         = errors.New("deck: no gesture in progress")
	ErrNotCommitting     = errors.New("deck: no swipe awaiting completion")
	ErrDeckExhausted     = errors.New("deck: no more packages")
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDragging   Phase = "dragging"
	PhaseCommitting Phase = "committing"
	PhaseSettled    Phase = "settled"
)

type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

type Decision string

const (
	DecisionLike Decision = "like"
	DecisionSkip Decision = "skip"
)

type OutcomeKind string

const (
	OutcomeCommit     OutcomeKind = "commit"
	OutcomeSpringBack OutcomeKind = "spring_back"
	OutcomeTap        OutcomeKind = "tap"
)

const (
	DefaultSwipeThreshold    = 120.0
	DefaultDirectionDeadzone = 25.0
	DefaultTapSlop           = 10.0
	DefaultTiltWidth         = 390.0
	maxTiltDegrees           = 10.0
)

type Config struct {
	SwipeThreshold    float64
	DirectionDeadzone float64
	TapSlop           float64
	// TiltWidth is the reference card width: a drag of half of it reaches full tilt.
	TiltWidth float64
}

func (c Config) withDefaults() Config {
	if c.SwipeThreshold <= 0 {
		c.SwipeThreshold = DefaultSwipeThreshold
	}
	if c.DirectionDeadzone <= 0 {
		c.DirectionDeadzone = DefaultDirectionDeadzone
	}
	if c.TapSlop <= 0 {
		c.TapSlop = DefaultTapSlop
	}
	if c.TiltWidth <= 0 {
		c.TiltWidth = DefaultTiltWidth
	}
	return c
}

type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// LikeFunc persists a like for the committed card.
type LikeFunc func(ctx context.Context, card domain.Package) error

// Outcome is the result of releasing a drag.
type Outcome struct {
	Kind      OutcomeKind     `json:"kind"`
	Decision  Decision        `json:"decision,omitempty"`
	Direction Direction       `json:"direction"`
	Card      *domain.Package `json:"card,omitempty"`
}

// Settlement is the result of completing a committed swipe.
type Settlement struct {
	Decision Decision       `json:"decision"`
	Card     domain.Package `json:"card"`
	Cursor   int            `json:"cursor"`
	// Err is the like handler's error. The deck advances regardless.
	Err error `json:"-"`
}

type State struct {
	Cards     []domain.Package `json:"cards"`
	Cursor    int              `json:"cursor"`
	Phase     Phase            `json:"phase"`
	Offset    Offset           `json:"offset"`
	Hint      Direction        `json:"hint"`
	Pending   Decision         `json:"pending,omitempty"`
	Remaining int              `json:"remaining"`
	Exhausted bool             `json:"exhausted"`
	Tilt      float64          `json:"tilt_degrees"`
	Current   *domain.Package  `json:"current,omitempty"`
}

// Deck is safe for concurrent use; only one gesture is accepted at a time.
type Deck struct {
	mu      sync.Mutex
	cfg     Config
	onLike  LikeFunc
	cards   []domain.Package
	cursor  int
	phase   Phase
	offset  Offset
	hint    Direction
	pending Decision

	// completing is set while the like handler of a committed swipe runs.
	completing bool
}

// New builds a deck over cards. onLike may be nil, in which case likes are not persisted.
func New(cards []domain.Package, cfg Config, onLike LikeFunc) *Deck {
	return &Deck{
		cfg:    cfg.withDefaults(),
		onLike: onLike,
		cards:  append([]domain.Package(nil), cards...),
		phase:  PhaseIdle,
		hint:   DirectionNone,
	}
}

func (d *Deck) Config() Config {
	return d.cfg
}

// Start begins a drag on the current card.
func (d *Deck) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseDragging, PhaseCommitting:
		return ErrGestureInProgress
	}
	if d.exhaustedLocked() {
		return ErrDeckExhausted
	}
	d.phase = PhaseDragging
	d.offset = Offset{}
	d.hint = DirectionNone
	return nil
}

// Move updates the live offset and returns the direction hint.
func (d *Deck) Move(dx, dy float64) (Direction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase != PhaseDragging {
		return DirectionNone, ErrNoGesture
	}
	d.offset = Offset{DX: dx, DY: dy}
	d.hint = d.directionFor(dx)
	return d.hint, nil
}

// Release ends the drag at the given total displacement.
func (d *Deck) Release(dx, dy float64) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase != PhaseDragging {
		return Outcome{}, ErrNoGesture
	}

	card := d.cards[d.cursor]
	switch {
	case math.Abs(dx) > d.cfg.SwipeThreshold:
		decision := DecisionSkip
		direction := DirectionLeft
		if dx > 0 {
			decision = DecisionLike
			direction = DirectionRight
		}
		d.phase = PhaseCommitting
		d.pending = decision
		d.offset = Offset{DX: dx, DY: dy}
		d.hint = DirectionNone
		return Outcome{Kind: OutcomeCommit, Decision: decision, Direction: direction, Card: &card}, nil

	case math.Hypot(dx, dy) <= d.cfg.TapSlop:
		d.resetLocked()
		return Outcome{Kind: OutcomeTap, Direction: DirectionNone, Card: &card}, nil

	default:
		d.resetLocked()
		return Outcome{Kind: OutcomeSpringBack, Direction: DirectionNone}, nil
	}
}

// Complete finishes a committed swipe: a like is handed to the like handler,
// a skip persists nothing. The cursor advances by one either way.
func (d *Deck) Complete(ctx context.Context) (Settlement, error) {
	d.mu.Lock()
	if d.phase != PhaseCommitting || d.completing {
		d.mu.Unlock()
		return Settlement{}, ErrNotCommitting
	}
	card := d.cards[d.cursor]
	decision := d.pending
	onLike := d.onLike
	d.completing = true
	d.mu.Unlock()

	// The phase stays Committing while the handler runs, so Start, Tap and
	// Restart are rejected; completing turns away a second Complete.
	var likeErr error
	if decision == DecisionLike && onLike != nil {
		likeErr = onLike(ctx, card)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.completing = false
	if d.cursor < len(d.cards) {
		d.cursor++
	}
	d.phase = PhaseSettled
	d.offset = Offset{}
	d.hint = DirectionNone
	d.pending = ""
	return Settlement{Decision: decision, Card: card, Cursor: d.cursor, Err: likeErr}, nil
}

// Tap opens the current card without moving the deck.
func (d *Deck) Tap() (domain.Package, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseDragging, PhaseCommitting:
		return domain.Package{}, ErrGestureInProgress
	}
	if d.exhaustedLocked() {
		return domain.Package{}, ErrDeckExhausted
	}
	return d.cards[d.cursor], nil
}

// Restart rewinds to the first card. Cards keep their original order.
func (d *Deck) Restart() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseDragging, PhaseCommitting:
		return ErrGestureInProgress
	}
	d.cursor = 0
	d.resetLocked()
	return nil
}

func (d *Deck) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := State{
		Cards:     append([]domain.Package(nil), d.cards...),
		Cursor:    d.cursor,
		Phase:     d.phase,
		Offset:    d.offset,
		Hint:      d.hint,
		Pending:   d.pending,
		Remaining: len(d.cards) - d.cursor,
		Exhausted: d.exhaustedLocked(),
		Tilt:      Tilt(d.offset.DX, d.cfg.TiltWidth),
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !st.Exhausted {
		card := d.cards[d.cursor]
		st.Current = &card
	}
	return st
}

// Tilt maps a horizontal offset to a rotation in degrees, clamped to ±10
// once the offset reaches half of width.
func Tilt(dx, width float64) float64 {
	if width <= 0 {
		return 0
	}
	deg := dx / (width / 2) * maxTiltDegrees
	return math.Max(-maxTiltDegrees, math.Min(maxTiltDegrees, deg))
}

func (d *Deck) directionFor(dx float64) Direction {
	switch {
	case dx > d.cfg.DirectionDeadzone:
		return DirectionRight
	case dx < -d.cfg.DirectionDeadzone:
		return DirectionLeft
	default:
		return DirectionNone
	}
}

func (d *Deck) exhaustedLocked() bool {
	return d.cursor >= len(d.cards)
}

func (d *Deck) resetLocked() {
	d.phase = PhaseIdle
	d.offset = Offset{}
	d.hint = DirectionNone
	d.pending = ""
}
