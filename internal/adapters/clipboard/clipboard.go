// Package clipboard provides platform clipboard transports for the grid.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Backend names a clipboard transport.
type Backend string

// Backend values.
const (
	BackendSystem Backend = "system"
	BackendOSC52  Backend = "osc52"
	BackendMemory Backend = "memory"
)

// ErrUnsupported reports that the system clipboard has no usable helper.
var ErrUnsupported = errors.New("system clipboard unsupported")

// Port is the transport contract shared by every backend.
type Port interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// New returns the transport for backend. The system backend degrades to
// OSC52 when no clipboard helper is installed.
func New(backend Backend, out io.Writer) (Port, error) {
	if out == nil {
		out = os.Stdout
	}
	switch Backend(strings.ToLower(strings.TrimSpace(string(backend)))) {
	case BackendSystem, "":
		if clipboard.Unsupported {
			return NewOSC52(out), nil
		}
		return System{}, nil
	case BackendOSC52:
		return NewOSC52(out), nil
	case BackendMemory:
		return &Memory{}, nil
	default:
		return nil, fmt.Errorf("unsupported clipboard backend %q", backend)
	}
}

// ViaTerminal reports whether port copies through the terminal escape
// sequence. A full-screen program should emit the sequence itself and build
// such a port over io.Discard.
func ViaTerminal(port Port) bool {
	_, ok := port.(*OSC52)
	return ok
}

// System reads and writes the OS clipboard through its helper binaries.
type System struct{}

// Read returns the OS clipboard text.
func (System) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	return clipboard.ReadAll()
}

// Write replaces the OS clipboard text.
func (System) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// OSC52 copies through the terminal escape sequence. Terminals rarely answer
// clipboard queries, so reads return the last text written in this session.
type OSC52 struct {
	out  io.Writer
	mu   sync.Mutex
	last Memory
	tmux bool
	scr  bool
}

// NewOSC52 returns an OSC52 transport writing to out, wrapping the sequence
// for tmux or screen when the environment says so.
func NewOSC52(out io.Writer) *OSC52 {
	return &OSC52{
		out:  out,
		tmux: os.Getenv("TMUX") != "",
		scr:  strings.HasPrefix(os.Getenv("TERM"), "screen"),
	}
}

// Read returns the last text written.
func (o *OSC52) Read(ctx context.Context) (string, error) {
	return o.last.Read(ctx)
}

// Write emits the OSC52 sequence for text.
func (o *OSC52) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seq := osc52.New(text)
	switch {
	case o.tmux:
		seq = seq.Tmux()
	case o.scr:
		seq = seq.Screen()
	}
	o.mu.Lock()
	_, err := seq.WriteTo(o.out)
	o.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write osc52 sequence: %w", err)
	}
	return o.last.Write(ctx, text)
}

// Memory is a process-local clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

// Read returns the stored text.
func (m *Memory) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Write stores text.
func (m *Memory) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
