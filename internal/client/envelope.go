package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// The API wraps payloads inconsistently: {success, data}, {success, tasks},
// {success, participants} or a bare value. Everything here reduces a body
// to the payload so callers only see canonical types.

var ErrUnexpectedShape = errors.New("unexpected response shape")

type envelope map[string]json.RawMessage

func (e envelope) failure() error {
	raw, ok := e["success"]
	if !ok {
		return nil
	}
	var success bool
	if err := json.Unmarshal(raw, &success); err != nil || success {
		return nil
	}
	msg := "request failed"
	for _, k := range []string{"error", "message"} {
		var s string
		if v, ok := e[k]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			msg = s
			break
		}
	}
	return &APIError{Message: msg}
}

// payload returns the first non-null member among keys.
func (e envelope) payload(keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := e[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func firstByte(body []byte) byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// decodeList extracts a list from a bare array or from the first of keys
// in an envelope. A missing list decodes as empty.
func decodeList[T any](body []byte, keys ...string) ([]T, error) {
	switch firstByte(body) {
	case 0:
		return []T{}, nil
	case '[':
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return nonNil(out), nil
	case '{':
	default:
		return nil, ErrUnexpectedShape
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.failure(); err != nil {
		return nil, err
	}
	raw, ok := env.payload(keys)
	if !ok {
		return []T{}, nil
	}
	// {data: {tasks: [...]}} nests the list one level deeper.
	if firstByte(raw) == '{' {
		return decodeList[T](raw, keys...)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return nonNil(out), nil
}

// decodeOne extracts a single object from an envelope member named by keys,
// or treats the body as the object itself when no such member exists.
func decodeOne[T any](body []byte, keys ...string) (T, error) {
	var zero T
	if firstByte(body) != '{' {
		return zero, ErrUnexpectedShape
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.failure(); err != nil {
		return zero, err
	}
	raw := json.RawMessage(body)
	if v, ok := env.payload(keys); ok {
		raw = v
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
