package events

import "encoding/json"

// typeOf reads the "type" field of a JSON event for the message header.
func typeOf(payload []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return "unknown"
	}
	if head.Type == "" {
		return "unknown"
	}
	return head.Type
}
