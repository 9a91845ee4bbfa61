// Package bridge spawns the Python analytics process and decodes the JSON
// envelope it prints on stdout.
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the decoded result document of one bridge invocation. Exactly
// one of the two variants is populated: Data on success, Message (plus an
// optional Traceback) on an upstream failure.
type Envelope struct {
	OK        bool
	Data      json.RawMessage
	Message   string
	Traceback string
}

// MalformedOutputError reports bridge stdout that is not a recognizable
// envelope. It keeps the raw output so operators can see what the process
// actually printed.
type MalformedOutputError struct {
	Raw []byte
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("bridge output is not a result envelope: %v (output: %s)", e.Err, snippet(e.Raw))
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// DecodeEnvelope parses one stdout document. The bridge script tags success
// as "success"; "ok" is accepted as an alias so simpler stand-in scripts
// work too. Any other status is treated as malformed rather than guessed at.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var wire struct {
		Status    string          `json:"status"`
		Data      json.RawMessage `json:"data"`
		Message   string          `json:"message"`
		Traceback string          `json:"traceback"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, &MalformedOutputError{Raw: raw, Err: err}
	}
	switch wire.Status {
	case "ok", "success":
		data := wire.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		return Envelope{OK: true, Data: data}, nil
	case "error":
		msg := wire.Message
		if msg == "" {
			msg = "bridge reported an error without a message"
		}
		return Envelope{Message: msg, Traceback: wire.Traceback}, nil
	default:
		return Envelope{}, &MalformedOutputError{Raw: raw, Err: fmt.Errorf("unrecognized status %q", wire.Status)}
	}
}

// snippet flattens raw output to a single bounded line for error text.
func snippet(raw []byte) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if s == "" {
		return "<empty>"
	}
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
