// Package f1 holds the fixed Formula One tool catalog and the dispatcher
// that turns protocol tool calls into bridge invocations.
package f1

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Param describes one positional argument of a bridge function.
type Param struct {
	Name        string
	Type        string // "string" or "number"
	Description string
	Required    bool
}

// Descriptor declares a callable tool: its protocol name, which is also the
// bridge function name, and its parameters in the exact order the bridge
// expects them on the command line.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// Tool is the wire form of a catalog entry, shared by both transports.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Catalog is the immutable tool table, built once at startup.
type Catalog struct {
	order []Descriptor
	index map[string]Descriptor
}

// NewCatalog returns the catalog of the eight Formula One tools.
func NewCatalog() *Catalog {
	order := []Descriptor{
		{
			Name:        "get_event_schedule",
			Description: "Get Formula One race calendar for a specific season",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
			},
		},
		{
			Name:        "get_event_info",
			Description: "Get detailed information about a specific Formula One Grand Prix",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "identifier", Type: "string", Description: "Event name or round number (e.g., 'Monaco' or '7')", Required: true},
			},
		},
		{
			Name:        "get_session_results",
			Description: "Get results for a specific Formula One session",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "event_identifier", Type: "string", Description: "Event name or round number", Required: true},
				{Name: "session_name", Type: "string", Description: "Session name (e.g., 'Race', 'Qualifying', 'Sprint', 'FP1')", Required: true},
			},
		},
		{
			Name:        "get_driver_info",
			Description: "Get information about a specific Formula One driver",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "event_identifier", Type: "string", Description: "Event name or round number", Required: true},
				{Name: "session_name", Type: "string", Description: "Session name (e.g., 'Race', 'Qualifying')", Required: true},
				{Name: "driver_identifier", Type: "string", Description: "Driver number, code, or name (e.g., '44', 'HAM')", Required: true},
			},
		},
		{
			Name:        "analyze_driver_performance",
			Description: "Analyze a driver's performance in a Formula One session",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "event_identifier", Type: "string", Description: "Event name or round number", Required: true},
				{Name: "session_name", Type: "string", Description: "Session name (e.g., 'Race', 'Qualifying')", Required: true},
				{Name: "driver_identifier", Type: "string", Description: "Driver number, code, or name (e.g., '44', 'HAM')", Required: true},
			},
		},
		{
			Name:        "compare_drivers",
			Description: "Compare performance between multiple Formula One drivers",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "event_identifier", Type: "string", Description: "Event name or round number", Required: true},
				{Name: "session_name", Type: "string", Description: "Session name (e.g., 'Race', 'Qualifying')", Required: true},
				{Name: "drivers", Type: "string", Description: "Comma-separated list of driver codes (e.g., 'HAM,VER,LEC')", Required: true},
			},
		},
		{
			Name:        "get_telemetry",
			Description: "Get telemetry data for a specific Formula One lap",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "event_identifier", Type: "string", Description: "Event name or round number", Required: true},
				{Name: "session_name", Type: "string", Description: "Session name (e.g., 'Race', 'Qualifying')", Required: true},
				{Name: "driver_identifier", Type: "string", Description: "Driver number, code, or name (e.g., '44', 'HAM')", Required: true},
				{Name: "lap_number", Type: "number", Description: "Lap number (fastest lap when omitted)", Required: false},
			},
		},
		{
			Name:        "get_championship_standings",
			Description: "Get Formula One championship standings for drivers and constructors",
			Params: []Param{
				{Name: "year", Type: "number", Description: "Season year (e.g., 2023)", Required: true},
				{Name: "round_num", Type: "number", Description: "Round number (latest standings when omitted)", Required: false},
			},
		},
	}

	index := make(map[string]Descriptor, len(order))
	for _, d := range order {
		index[d.Name] = d
	}
	return &Catalog{order: order, index: index}
}

// Tools returns the catalog as wire descriptors, in declaration order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, len(c.order))
	for _, d := range c.order {
		out = append(out, Tool{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema()})
	}
	return out
}

// Lookup returns the descriptor registered under name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.index[name]
	return d, ok
}

// InputSchema builds the JSON-schema object advertised for this tool.
func (d Descriptor) InputSchema() map[string]any {
	properties := make(map[string]any, len(d.Params))
	required := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// BuildArgs converts the supplied argument map into the positional string
// sequence the bridge expects: declared order, required parameters must be
// present, and optional parameters are appended only when supplied, never
// as empty placeholders.
func (d Descriptor) BuildArgs(args map[string]any) ([]string, error) {
	out := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, &ArgumentError{Tool: d.Name, Param: p.Name, Err: ErrMissingArgument}
			}
			continue
		}
		s, err := formatValue(v)
		if err != nil {
			return nil, &ArgumentError{Tool: d.Name, Param: p.Name, Err: err}
		}
		out = append(out, s)
	}
	return out, nil
}

// formatValue renders a JSON-decoded argument as the bridge's command-line
// string. Integral floats print without a trailing ".0" so a year arrives
// as "2023".
func formatValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: type %T has no positional form", ErrBadArgument, v)
	}
}
