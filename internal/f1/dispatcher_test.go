package f1

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rakeshgangwar/f1-mcp-server/internal/bridge"
)

// fakeRunner records the invocation and replies with a canned envelope.
type fakeRunner struct {
	function string
	args     []string
	calls    int

	env bridge.Envelope
	err error
}

func (f *fakeRunner) Invoke(_ context.Context, function string, args []string) (bridge.Envelope, error) {
	f.calls++
	f.function = function
	f.args = args
	return f.env, f.err
}

func newTestDispatcher(r bridge.Runner) *Dispatcher {
	return NewDispatcher(NewCatalog(), r, zerolog.Nop())
}

func TestCallSuccess(t *testing.T) {
	runner := &fakeRunner{env: bridge.Envelope{OK: true, Data: json.RawMessage(`{"round":7,"name":"Monaco"}`)}}
	d := newTestDispatcher(runner)

	res, err := d.Call(context.Background(), "get_event_info", map[string]any{
		"year":       float64(2023),
		"identifier": "Monaco",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
	if runner.function != "get_event_info" {
		t.Errorf("invoked %q, want get_event_info", runner.function)
	}
	if want := []string{"2023", "Monaco"}; !reflect.DeepEqual(runner.args, want) {
		t.Errorf("args = %v, want %v", runner.args, want)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("content = %+v, want one text block", res.Content)
	}
	if !strings.Contains(res.Content[0].Text, "\"name\": \"Monaco\"") {
		t.Errorf("data not pretty-printed: %q", res.Content[0].Text)
	}
}

func TestCallUnknownToolNeverSpawns(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	_, err := d.Call(context.Background(), "get_pit_stops", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v, want ErrUnknownTool", err)
	}
	if runner.calls != 0 {
		t.Fatalf("runner invoked %d times for an unknown tool", runner.calls)
	}
}

func TestCallMissingArgumentNeverSpawns(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDispatcher(runner)

	res, err := d.Call(context.Background(), "get_event_schedule", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	text := res.Content[0].Text
	if !strings.HasPrefix(text, "Error: ") {
		t.Errorf("error text should carry the Error prefix: %q", text)
	}
	if !strings.Contains(text, "year") {
		t.Errorf("error text should name the parameter: %q", text)
	}
	if runner.calls != 0 {
		t.Fatalf("runner invoked %d times despite invalid arguments", runner.calls)
	}
}

func TestCallUpstreamError(t *testing.T) {
	runner := &fakeRunner{env: bridge.Envelope{
		Message:   "Session not loaded",
		Traceback: "Traceback (most recent call last):\n  ...",
	}}
	d := newTestDispatcher(runner)

	res, err := d.Call(context.Background(), "get_event_schedule", map[string]any{"year": float64(2023)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	text := res.Content[0].Text
	if !strings.Contains(text, "Session not loaded") || !strings.Contains(text, "Traceback") {
		t.Errorf("error text missing message or traceback: %q", text)
	}
}

func TestCallProcessFailure(t *testing.T) {
	runner := &fakeRunner{err: &bridge.ProcessError{Function: "get_event_schedule", ExitCode: 1, Stderr: "boom"}}
	d := newTestDispatcher(runner)

	res, err := d.Call(context.Background(), "get_event_schedule", map[string]any{"year": float64(2023)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(res.Content[0].Text, "boom") {
		t.Errorf("error text should surface stderr: %q", res.Content[0].Text)
	}
}

func TestCallNullData(t *testing.T) {
	runner := &fakeRunner{env: bridge.Envelope{OK: true, Data: json.RawMessage("null")}}
	d := newTestDispatcher(runner)

	res, err := d.Call(context.Background(), "get_event_schedule", map[string]any{"year": float64(2023)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
	if res.Content[0].Text != "null" {
		t.Fatalf("text = %q, want null", res.Content[0].Text)
	}
}

func TestToolsMatchesCatalog(t *testing.T) {
	d := newTestDispatcher(&fakeRunner{})
	if got := len(d.Tools()); got != 8 {
		t.Fatalf("Tools() returned %d entries, want 8", got)
	}
}
