// Package media defines the abstraction layer between the gating engine and the host playback environment.
package media

import (
	"sync"
)

// Memory is a synthetic in-process Element with a manually driven clock.
// It backs the test suite and lets the gating engine be exercised without a
// running player.
type Memory struct {
	mu       sync.Mutex
	src      string
	width    float64
	height   float64
	duration float64
	position float64
	paused   bool
	closed   bool
	callback EventCallback
}

// NewMemory creates a synthetic element with the given source and duration.
func NewMemory(src string, duration float64) *Memory {
	return &Memory{src: src, duration: duration, width: 1280, height: 720}
}

// SetRect overrides the reported display dimensions.
func (m *Memory) SetRect(width, height float64) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width, m.height = width, height
	return m
}

func (m *Memory) Src() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *Memory) Rect() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *Memory) Duration() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, nil
}

func (m *Memory) CurrentTime() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, nil
}

func (m *Memory) Seek(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = seconds
	return nil
}

func (m *Memory) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	return nil
}

func (m *Memory) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

// Paused reports the current suspension state.
func (m *Memory) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Memory) Observe(cb EventCallback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
	return nil
}

func (m *Memory) StopObserve() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = nil
}

func (m *Memory) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.callback = nil
	return nil
}

// Advance moves the synthetic clock and emits a time-pos notification,
// mimicking the native playback-position-update cadence.
func (m *Memory) Advance(to float64) {
	m.mu.Lock()
	m.position = to
	cb := m.callback
	m.mu.Unlock()

	if cb != nil {
		cb("time-pos", to)
	}
}

// EmitSeeking jumps the clock and emits a seeking notification, mimicking an
// explicit position jump by the user.
func (m *Memory) EmitSeeking(to float64) {
	m.mu.Lock()
	m.position = to
	cb := m.callback
	m.mu.Unlock()

	if cb != nil {
		cb("seeking", true)
	}
}
