// Package media defines the abstraction layer between the gating engine and the host playback environment.
package media

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// MPV implements the Element interface over mpv's JSON-IPC protocol.
// An element is either managed (the process was launched by us and is
// terminated on Close) or attached (an already-running player discovered
// through its socket; Close only detaches).
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	managed    bool
	exited     chan struct{} // closed when a managed mpv process exits
	listener   *EventListener
	mu         sync.Mutex // protects socket writes
}

// Attach binds to an already-running mpv instance by its IPC socket path.
func Attach(socketPath string) *MPV {
	return &MPV{socketPath: socketPath}
}

// Launch starts a new managed mpv process playing the given URL and waits
// for its IPC socket to accept commands.
func Launch(rawURL string, title string) (*MPV, error) {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}
	safeTitle := sanitizeTitle(title)

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("generate socket name: %w", err)
	}

	m := &MPV{
		socketPath: filepath.Join(where.Temp(), fmt.Sprintf("ivq-%x.sock", randomBytes)),
		managed:    true,
		exited:     make(chan struct{}),
	}

	// Pass only the socket, title and URL; respect the user's mpv.conf.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", safeTitle),
		fmt.Sprintf("--title=%s", safeTitle),
		"--force-window=yes",
		"--idle=yes",
		safeURL,
	}

	m.cmd = exec.Command("mpv", args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	// Reap the process to prevent zombies.
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = m.cmd.Process.Kill()
			}
		}
		return nil, fmt.Errorf("mpv socket not ready: %w", err)
	}

	return m, nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Socket returns the IPC socket path of the underlying player.
func (m *MPV) Socket() string {
	return m.socketPath
}

// Src returns the path or URL of the currently loaded media, empty when idle.
func (m *MPV) Src() string {
	data, err := m.sendCommand([]interface{}{"get_property", "path"})
	if err != nil {
		return ""
	}
	src, _ := data.(string)
	return src
}

// Rect returns the rendered video dimensions. Audio-only or idle instances
// report zero area, which the locator treats as a non-candidate.
func (m *MPV) Rect() (width, height float64) {
	w, err := m.getFloatProperty("dwidth")
	if err != nil {
		return 0, 0
	}
	h, err := m.getFloatProperty("dheight")
	if err != nil {
		return 0, 0
	}
	return w, h
}

// Duration returns the total duration of the current media in seconds.
func (m *MPV) Duration() (float64, error) {
	return m.getFloatProperty("duration")
}

// CurrentTime returns the current playback position in seconds.
func (m *MPV) CurrentTime() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]interface{}{"seek", seconds, "absolute"})
	return err
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	_, err := m.sendCommand([]interface{}{"set_property", "pause", true})
	return err
}

// Resume continues suspended playback.
func (m *MPV) Resume() error {
	_, err := m.sendCommand([]interface{}{"set_property", "pause", false})
	return err
}

// Observe starts property observation, replacing any active observer.
func (m *MPV) Observe(cb EventCallback) error {
	m.StopObserve()
	listener := NewEventListener(m.socketPath, cb)
	if err := listener.Start(); err != nil {
		return err
	}
	m.listener = listener
	return nil
}

// StopObserve terminates property observation.
func (m *MPV) StopObserve() {
	if m.listener != nil {
		m.listener.Stop()
		m.listener = nil
	}
}

// Alive reports whether the player is responding to IPC commands.
func (m *MPV) Alive() bool {
	if m.socketPath == "" {
		return false
	}

	if m.managed {
		select {
		case <-m.exited:
			return false
		default:
		}
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Close detaches from the player and, for managed instances, shuts the
// process down and removes its socket file.
func (m *MPV) Close() error {
	m.StopObserve()

	if !m.managed || m.socketPath == "" {
		return nil
	}

	// Try graceful quit via IPC.
	_, _ = m.sendCommand([]interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// getFloatProperty is a helper to retrieve a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as local file path
	return filepath.Clean(l), nil
}

// sanitizeTitle cleans up the window title for mpv.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
