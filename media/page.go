// Package media defines the abstraction layer between the gating engine and the host playback environment.
package media

import (
	"net"
	"path/filepath"
	"sync"

	"github.com/ivq-cli/ivq/where"
	"golang.org/x/exp/slices"
)

// SocketPage discovers media elements by scanning the application temp
// directory for live mpv IPC sockets. Elements are cached per socket path so
// repeated scans hand back the same Element identity for an unchanged player,
// which lets callers compare elements by reference.
type SocketPage struct {
	mu       sync.Mutex
	elements map[string]*MPV
}

// NewSocketPage creates a page scanning the default socket directory.
func NewSocketPage() *SocketPage {
	return &SocketPage{elements: make(map[string]*MPV)}
}

// Register adds an externally created element (e.g. a launched player) to the
// page so scans report it without re-dialing its socket.
func (p *SocketPage) Register(el *MPV) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[el.Socket()] = el
}

// Videos returns the currently live elements, dropping dead sockets.
func (p *SocketPage) Videos() []Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(where.Temp(), "*.sock"))
	if err != nil {
		paths = nil
	}

	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		seen[path] = struct{}{}
		if _, ok := p.elements[path]; ok {
			continue
		}
		if !socketAccepts(path) {
			continue
		}
		p.elements[path] = Attach(path)
	}

	// Previously registered sockets keep their identity while alive.
	live := make([]string, 0, len(p.elements))
	for path, el := range p.elements {
		_, present := seen[path]
		if !present && !el.Alive() {
			delete(p.elements, path)
			continue
		}
		live = append(live, path)
	}
	slices.Sort(live)

	out := make([]Element, 0, len(live))
	for _, path := range live {
		out = append(out, p.elements[path])
	}
	return out
}

// socketAccepts reports whether a Unix socket path accepts connections.
func socketAccepts(path string) bool {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
