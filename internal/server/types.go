package server

// CallRequest is the POST /mcp/call body: the same name/arguments pair the
// stdio transport carries in tools/call params.
type CallRequest struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"arguments"`
}
