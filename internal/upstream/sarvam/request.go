package sarvam

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Message is one entry of the chat history sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body of a streamed chat completion call.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// EncodeRequest marshals req and, when reasoningEffort is truthy, splices it
// in verbatim as "reasoning_effort". Falsy values leave the key out entirely.
func EncodeRequest(req CompletionRequest, reasoningEffort json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}
	body := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	if !Truthy(gjson.ParseBytes(reasoningEffort)) {
		return body, nil
	}
	body, err := sjson.SetRawBytes(body, "reasoning_effort", reasoningEffort)
	if err != nil {
		return nil, fmt.Errorf("failed to set reasoning_effort: %w", err)
	}
	return body, nil
}

// Truthy reports whether a JSON value counts as set: not null, false, "",
// 0, [] or {}.
func Truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		if v.IsObject() {
			return len(v.Map()) > 0
		}
		return false
	}
	return true
}
