package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/hoshu/internal/domain"
)

// ClipboardPort is the platform clipboard transport.
type ClipboardPort interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// Clipboard orchestrates copy and paste between the grid and a ClipboardPort.
// It keeps the last copied buffer so typed values survive an internal paste.
type Clipboard struct {
	mu     sync.Mutex
	port   ClipboardPort
	buffer *Buffer
	text   string
	clock  func() time.Time
}

// ClipboardOption configures a Clipboard.
type ClipboardOption func(*Clipboard)

// WithClipboardClock overrides the capture clock.
func WithClipboardClock(clock func() time.Time) ClipboardOption {
	return func(c *Clipboard) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClipboard constructs a clipboard over port.
func NewClipboard(port ClipboardPort, opts ...ClipboardOption) *Clipboard {
	c := &Clipboard{port: port, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CopyResult describes a completed copy.
type CopyResult struct {
	Buffer *Buffer
	Text   string
}

// Copy extracts sel, writes its interchange text to the port and, only on
// success, keeps the buffer as the internal clipboard.
func (c *Clipboard) Copy(ctx context.Context, sel Range, records []domain.Record, columns []domain.Column, area string) (CopyResult, error) {
	buf := Extract(sel, records, columns, area)
	if buf == nil {
		return CopyResult{}, ErrNoSelection
	}
	buf.CapturedAt = c.clock().UTC()
	text := Serialize(buf)
	if c.port != nil {
		if err := c.port.Write(ctx, text); err != nil {
			return CopyResult{}, fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
		}
	}

	c.mu.Lock()
	c.buffer = buf
	c.text = text
	c.mu.Unlock()
	return CopyResult{Buffer: buf, Text: text}, nil
}

// PasteRequest describes the paste target.
type PasteRequest struct {
	Anchor   CellRef
	Records  []domain.Record
	Columns  []domain.Column
	ReadOnly bool
	Area     string
	DryRun   bool
}

// PasteResult describes a paste. Records is the input set when the paste was
// blocked or DryRun was requested; Applied still counts the cells a dry run
// would write.
type PasteResult struct {
	Validation ValidationResult
	Records    []domain.Record
	Applied    int
	Buffer     *Buffer
	Reused     bool
}

// Outcome reports the user-visible paste result.
func (r PasteResult) Outcome() Outcome {
	return r.Validation.Outcome()
}

// Paste reads the port and pastes its text. A port failure returns an error
// wrapping ErrClipboardUnavailable and no records.
func (c *Clipboard) Paste(ctx context.Context, req PasteRequest) (PasteResult, error) {
	if c.port == nil {
		return PasteResult{}, ErrClipboardUnavailable
	}
	text, err := c.port.Read(ctx)
	if err != nil {
		return PasteResult{}, fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return c.PasteText(text, req)
}

// PasteText deserializes text at req.Anchor, validates it and applies it.
// Text equal to the last copy reuses the internal buffer.
func (c *Clipboard) PasteText(text string, req PasteRequest) (PasteResult, error) {
	buf, reused := c.bufferFor(text, req)
	if !reused && text == "" {
		return PasteResult{Records: req.Records}, ErrNothingToPaste
	}
	res := PasteResult{
		Validation: Validate(buf, req.Anchor, req.Records, req.Columns, req.ReadOnly),
		Records:    req.Records,
		Buffer:     buf,
		Reused:     reused,
	}
	if res.Outcome() == OutcomeBlocked {
		return res, nil
	}
	updated, applied := Apply(buf, req.Anchor, req.Records, req.Columns)
	res.Applied = applied
	if !req.DryRun {
		res.Records = updated
	}
	return res, nil
}

// Buffer returns the internal clipboard buffer, if any.
func (c *Clipboard) Buffer() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// bufferFor returns the internal buffer when text matches it, else
// deserializes text onto the request grid.
func (c *Clipboard) bufferFor(text string, req PasteRequest) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buffer != nil && trimTrailingNewline(text) == trimTrailingNewline(c.text) {
		return c.buffer, true
	}
	buf := Deserialize(text, req.Area, req.Anchor, req.Columns, req.Records)
	buf.CapturedAt = c.clock().UTC()
	return buf, false
}

// trimTrailingNewline drops one trailing line break.
func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
