package submission

import (
	"encoding/json"
	"fmt"
	"time"
)

// EvidenceRef points at one encrypted evidence object.
type EvidenceRef struct {
	Name    string `json:"name"`
	Locator string `json:"locator"`
}

// Payload is the plaintext sealed into the primary blob. Field order is fixed by the struct.
type Payload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Timestamp   int64         `json:"timestamp"` // unix milliseconds
	Evidence    []EvidenceRef `json:"evidence,omitempty"`
}

// CommentPayload is the plaintext of a reviewer comment.
type CommentPayload struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns Timestamp as a time.Time.
func (p *Payload) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

func encodeJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	return raw, nil
}

func decodePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}
	return &p, nil
}

func decodeComment(raw []byte) (*CommentPayload, error) {
	var c CommentPayload
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode comment: %w", err)
	}
	return &c, nil
}
