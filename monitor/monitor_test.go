package monitor

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bosley/huddle/pipeline"
)

func TestHandleState(t *testing.T) {
	pipe := pipeline.New(pipeline.Options{})
	m := New(":0", pipe)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/state", nil)
	m.handleState(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status: %d", rec.Code)
	}
	var st pipeline.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Status != pipeline.StatusIdle {
		t.Fatalf("state: got %s, want idle", st.Status)
	}
}

func TestBroadcastMarshal(t *testing.T) {
	pipe := pipeline.New(pipeline.Options{})
	m := New(":0", pipe)

	// No subscribers connected; broadcast must not block or panic.
	m.broadcast(pipeline.Event{
		Type:      pipeline.EventStatusChanged,
		Timestamp: time.Now(),
		Payload:   pipeline.State{Status: pipeline.StatusCapturing},
	})
}
