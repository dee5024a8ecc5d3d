// Package media defines the abstraction layer between the gating engine and the host playback environment.
//
// An Element is one playable media surface (the primary implementation drives
// mpv over its JSON-IPC socket); a Page is the collection of elements currently
// discoverable on the machine. The gating engine only ever talks to these two
// interfaces, so the host can be swapped for a synthetic one in tests.
package media

// EventCallback is the function signature for playback property notifications.
// Property names follow the mpv observe_property vocabulary: "time-pos",
// "seeking", "pause" and "eof-reached".
type EventCallback func(property string, data interface{})

// Element encapsulates the required capabilities of a single media surface.
type Element interface {
	// Src returns the source URL or path of the loaded media, empty when unknown.
	Src() string

	// Rect returns the rendered display dimensions of the element.
	// Elements without an active video track report zero area.
	Rect() (width, height float64)

	// Duration retrieves the total temporal length of the active media in seconds.
	Duration() (float64, error)

	// CurrentTime retrieves the current absolute playback position in seconds.
	CurrentTime() (float64, error)

	// Seek transitions the playback position to an absolute timestamp in seconds.
	Seek(seconds float64) error

	// Pause suspends playback.
	Pause() error

	// Resume continues suspended playback.
	Resume() error

	// Observe starts property observation, delivering change notifications to
	// the callback until StopObserve or Close. At most one observer is active
	// per element; a second Observe call replaces the first.
	Observe(cb EventCallback) error

	// StopObserve terminates property observation.
	StopObserve()

	// Alive reports whether the element still responds to commands.
	Alive() bool

	// Close releases all resources associated with the element.
	Close() error
}

// Page models the host environment producing media elements.
type Page interface {
	// Videos returns the elements currently present, in discovery order.
	Videos() []Element
}

// StaticPage is a fixed collection of elements, useful for composition and tests.
type StaticPage struct {
	Elements []Element
}

func (p *StaticPage) Videos() []Element {
	return p.Elements
}
