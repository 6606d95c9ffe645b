package gql

import (
	"encoding/json"
	"fmt"
)

// Error is a GraphQL response without data. Errors holds the serialized
// "errors" member exactly as the server sent it.
type Error struct {
	Errors json.RawMessage
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Errors) == 0 {
		return "graphql: response has neither data nor errors"
	}
	return "graphql: " + string(e.Errors)
}

// Messages extracts the message of each error entry. Entries without a
// message are skipped.
func (e *Error) Messages() []string {
	var entries []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Errors, &entries); err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Message != "" {
			out = append(out, entry.Message)
		}
	}
	return out
}

// HTTPError is a non-2xx response whose body is not a GraphQL document.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, string(e.Body))
}
