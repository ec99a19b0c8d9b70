package diarize

import "sync"

// Buffer holds the visual observations of one capture session. The frame
// ingestion path appends while the session is live; diarization reads a
// snapshot once capture has stopped.
type Buffer struct {
	mu  sync.Mutex
	obs []VisualObservation
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Append(o VisualObservation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.obs = append(b.obs, o)
}

// Snapshot returns a copy of the buffered observations.
func (b *Buffer) Snapshot() []VisualObservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]VisualObservation, len(b.obs))
	copy(out, b.obs)
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.obs)
}

// Reset discards all buffered observations for a fresh session.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.obs = nil
}
