package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unwrap is the single place that deals with the two response shapes the backend uses:
// the bare object, or the object wrapped as {"status": ..., "data": {...}}.
// It reports false when the body carries no payload at all.
func unwrap(body []byte) (json.RawMessage, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}

	if trimmed[0] != '{' {
		return trimmed, true, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, false, fmt.Errorf("json.Unmarshal: %w", err)
	}

	data, hasData := envelope["data"]
	_, hasStatus := envelope["status"]
	if !hasData || !hasStatus {
		return trimmed, true, nil
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false, nil
	}

	return data, true, nil
}

func decode[T any](body []byte) (T, bool, error) {
	var zero T

	payload, ok, err := unwrap(body)
	if err != nil || !ok {
		return zero, ok, err
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return zero, false, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return v, true, nil
}
