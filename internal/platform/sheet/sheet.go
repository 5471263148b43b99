// Package sheet computes the valid resting positions of the app's sliding
// bottom panel from device geometry and the current UI mode, and keeps
// tab-bar/header visibility consistent with the panel position. It holds no
// domain state and performs no I/O.
package sheet

import (
	"fmt"
	"sync"
)

// Mode is the UI mode driving which snap points are valid.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeDetail  Mode = "detail"
	ModeTrip    Mode = "trip"
	ModeBooking Mode = "booking"
	ModeRequest Mode = "request"
)

// CollapsedIndex is the snap index of the collapsed/base position.
const CollapsedIndex = 0

// Geometry describes the device layout the snap points are derived from.
// All values are in screen points.
type Geometry struct {
	ScreenHeight float64 `json:"screen_height"`
	TabBarHeight float64 `json:"tab_bar_height"`
	SafeTop      float64 `json:"safe_top"`
	SafeBottom   float64 `json:"safe_bottom"`
}

// usable is the vertical space the panel can occupy.
func (g Geometry) usable() float64 {
	return g.ScreenHeight - g.SafeTop - g.SafeBottom
}

// Valid reports whether the geometry describes a plausible screen.
func (g Geometry) Valid() bool {
	return g.ScreenHeight > 0 && g.usable() > g.TabBarHeight && g.TabBarHeight >= 0
}

// modeFractions maps each mode to the panel heights, as fractions of the
// usable screen, that the panel may rest at. Index 0 is always the collapsed
// position.
var modeFractions = map[Mode][]float64{
	ModeIdle:    {0.12, 0.45, 0.88},
	ModeDetail:  {0.18, 0.55, 0.92},
	ModeTrip:    {0.15, 0.50},
	ModeBooking: {0.15, 0.50},
	ModeRequest: {0.35, 0.75},
}

// Signaler receives one-way UI visibility signals from the controller.
type Signaler interface {
	SetTabBarVisible(visible bool)
	SetHeaderVisible(visible bool)
}

// NopSignaler discards all signals.
type NopSignaler struct{}

func (NopSignaler) SetTabBarVisible(bool) {}
func (NopSignaler) SetHeaderVisible(bool) {}

// Controller tracks the current mode, its snap points, and the active snap
// index. Snap points are computed once per mode and then locked so layout
// re-measurement cannot cause visual jitter; ModeRequest is exempt because
// its geometry legitimately changes between sub-states.
type Controller struct {
	mu       sync.Mutex
	geometry Geometry
	mode     Mode
	index    int
	locked   map[Mode][]float64
	signaler Signaler
}

// NewController creates a Controller in ModeIdle.
func NewController(geometry Geometry, signaler Signaler) (*Controller, error) {
	if !geometry.Valid() {
		return nil, fmt.Errorf("invalid geometry: %+v", geometry)
	}
	if signaler == nil {
		signaler = NopSignaler{}
	}
	c := &Controller{
		geometry: geometry,
		mode:     ModeIdle,
		index:    CollapsedIndex,
		locked:   make(map[Mode][]float64),
		signaler: signaler,
	}
	c.locked[ModeIdle] = c.compute(ModeIdle)
	return c, nil
}

func (c *Controller) compute(mode Mode) []float64 {
	fractions := modeFractions[mode]
	points := make([]float64, len(fractions))
	usable := c.geometry.usable()
	for i, f := range fractions {
		h := usable * f
		if i == CollapsedIndex && h < c.geometry.TabBarHeight {
			h = c.geometry.TabBarHeight
		}
		points[i] = h
	}
	return points
}

// SetMode switches the UI mode and resets the snap index to the collapsed
// position. Snap points for a mode are computed on first entry and reused on
// re-entry; ModeRequest recomputes every time.
func (c *Controller) SetMode(mode Mode) error {
	if _, ok := modeFractions[mode]; !ok {
		return fmt.Errorf("unknown mode: %s", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == ModeRequest {
		c.locked[mode] = c.compute(mode)
	} else if _, ok := c.locked[mode]; !ok {
		c.locked[mode] = c.compute(mode)
	}

	c.mode = mode
	c.index = CollapsedIndex
	c.signaler.SetTabBarVisible(true)
	c.signaler.SetHeaderVisible(true)
	return nil
}

// SetGeometry records new device geometry. Already-locked modes keep their
// snap points; modes not yet entered pick up the change on entry, and
// ModeRequest, when current, recomputes immediately because its geometry
// changes between sub-states.
func (c *Controller) SetGeometry(geometry Geometry) error {
	if !geometry.Valid() {
		return fmt.Errorf("invalid geometry: %+v", geometry)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.geometry = geometry
	if c.mode == ModeRequest {
		c.locked[ModeRequest] = c.compute(ModeRequest)
	}
	return nil
}

// Mode returns the current UI mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SnapPoints returns the snap points for the current mode, collapsed first.
func (c *Controller) SnapPoints() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := c.locked[c.mode]
	out := make([]float64, len(points))
	copy(out, points)
	return out
}

// CurrentIndex returns the active snap index.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// HandleSheetChange records a new snap index reported by the UI. Index 0
// restores the tab bar and header; the maximum index hides the tab bar.
func (c *Controller) HandleSheetChange(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := c.locked[c.mode]
	if index < 0 || index >= len(points) {
		return fmt.Errorf("snap index %d out of range for mode %s", index, c.mode)
	}

	c.index = index
	switch {
	case index == CollapsedIndex:
		c.signaler.SetTabBarVisible(true)
		c.signaler.SetHeaderVisible(true)
	case index == len(points)-1:
		c.signaler.SetTabBarVisible(false)
	}
	return nil
}

// State is a snapshot of the controller for API responses.
type State struct {
	Mode       Mode      `json:"mode"`
	SnapPoints []float64 `json:"snap_points"`
	SnapIndex  int       `json:"snap_index"`
}

// Snapshot returns the current mode, snap points, and snap index.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	points := c.locked[c.mode]
	out := make([]float64, len(points))
	copy(out, points)
	return State{Mode: c.mode, SnapPoints: out, SnapIndex: c.index}
}
