package pipeline

import (
	"strings"

	"github.com/jackzampolin/storyboard/internal/types"
)

// WindowSize is how many recent shots are carried into the next chunk's prompt.
const WindowSize = 5

// Window is a fixed-capacity FIFO ring buffer of strings.
// Pushing onto a full window evicts the oldest entry.
type Window struct {
	buf   []string
	start int
	n     int
}

// NewWindow creates an empty window holding at most capacity entries.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]string, capacity)}
}

// Push appends s, evicting the oldest entry when full.
func (w *Window) Push(s string) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = s
		w.n++
		return
	}
	w.buf[w.start] = s
	w.start = (w.start + 1) % len(w.buf)
}

// Items returns the entries oldest first.
func (w *Window) Items() []string {
	out := make([]string, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Len returns the number of entries held.
func (w *Window) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Continuity carries state from one chunk to the next within a single run.
type Continuity struct {
	window  *Window
	emitted int
}

// NewContinuity creates continuity state for a fresh run.
func NewContinuity() *Continuity {
	return &Continuity{window: NewWindow(WindowSize)}
}

// NextShotNumber is the number the next chunk must start from.
func (c *Continuity) NextShotNumber() int {
	return c.emitted + 1
}

// Emitted returns how many shots have been accepted so far.
func (c *Continuity) Emitted() int {
	return c.emitted
}

// Recent returns the text of the most recent shots, oldest first.
func (c *Continuity) Recent() []string {
	return c.window.Items()
}

// Advance records the shots of a successfully completed chunk.
func (c *Continuity) Advance(shots []types.Shot) {
	for _, s := range shots {
		c.window.Push(shotText(s))
	}
	c.emitted += len(shots)
}

// shotText is the line remembered for a shot: its dialogue with the speaker,
// or the visual prompt for a silent shot.
func shotText(s types.Shot) string {
	dialogue := strings.TrimSpace(s.Dialogue)
	if dialogue == "" {
		return strings.TrimSpace(s.FusionPrompt)
	}
	if voice := strings.TrimSpace(s.VoiceCharacter); voice != "" {
		return voice + ": " + dialogue
	}
	return dialogue
}
