package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope wraps every backend response.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// HasData reports whether the envelope carries a non-null payload.
func (e Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the payload into target. A missing payload is ErrNoData.
func (e Envelope) Decode(target any) error {
	if !e.HasData() {
		return ErrNoData
	}
	if err := json.Unmarshal(e.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
