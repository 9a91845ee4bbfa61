package f1

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakeshgangwar/f1-mcp-server/internal/bridge"
)

// Content is one block of a tool result. This server only ever produces
// text blocks.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the outcome of a tool call as both transports emit it.
// Tool-level failures travel here with IsError set, not as protocol errors,
// so the calling model can read them and adjust.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

func textResult(text string) *CallResult {
	return &CallResult{Content: []Content{{Type: "text", Text: text}}}
}

func errorResult(err error) *CallResult {
	return &CallResult{
		Content: []Content{{Type: "text", Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

// Dispatcher routes tool calls from any transport through the catalog to
// the bridge runner.
type Dispatcher struct {
	catalog *Catalog
	runner  bridge.Runner
	log     zerolog.Logger
}

// NewDispatcher binds a catalog to a runner.
func NewDispatcher(catalog *Catalog, runner bridge.Runner, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		catalog: catalog,
		runner:  runner,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

// Tools lists the catalog in its declaration order.
func (d *Dispatcher) Tools() []Tool {
	return d.catalog.Tools()
}

// Call executes one tool call. An unregistered name returns ErrUnknownTool
// without touching the bridge; every other failure, from a missing argument
// to a dead process to an upstream analytics error, is folded into an
// IsError result so it reaches the caller as readable text.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	desc, ok := d.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	argv, err := desc.BuildArgs(args)
	if err != nil {
		d.log.Warn().Str("tool", name).Err(err).Msg("rejected tool call")
		return errorResult(err), nil
	}

	start := time.Now()
	env, err := d.runner.Invoke(ctx, desc.Name, argv)
	if err != nil {
		return errorResult(err), nil
	}
	if !env.OK {
		d.log.Warn().Str("tool", name).Str("message", env.Message).Msg("bridge reported an error")
		return errorResult(upstreamError(env)), nil
	}

	text, err := renderData(env.Data)
	if err != nil {
		return errorResult(err), nil
	}

	d.log.Info().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("tool call succeeded")
	return textResult(text), nil
}

// upstreamError formats a status:"error" envelope, appending the traceback
// when the bridge sent one.
func upstreamError(env bridge.Envelope) error {
	if env.Traceback != "" {
		return fmt.Errorf("%s\n\n%s", env.Message, env.Traceback)
	}
	return fmt.Errorf("%s", env.Message)
}

// renderData pretty-prints the success payload for the text content block.
func renderData(data json.RawMessage) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render bridge data: %w", err)
	}
	return string(out), nil
}
