package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Buffer holds upload bytes. It decodes from a base64 string or from the
// {"type":"Buffer","data":[...]} shape Node.js producers emit.
type Buffer []byte

// UnmarshalJSON implements json.Unmarshaler.
func (b *Buffer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("buffer: invalid base64: %w", err)
		}
		*b = decoded
		return nil
	}

	var node struct {
		Type string `json:"type"`
		Data []int  `json:"data"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("buffer: expected base64 string or Buffer object: %w", err)
	}
	if node.Type != "Buffer" {
		return fmt.Errorf("buffer: unexpected object type %q", node.Type)
	}
	out := make([]byte, len(node.Data))
	for i, v := range node.Data {
		if v < 0 || v > 255 {
			return fmt.Errorf("buffer: byte %d out of range at index %d", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// MarshalJSON encodes the buffer as base64.
func (b Buffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}
