package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ArenaX-Network/arena_layer/pkg/codec"
)

// Response is a raw API response. Endpoint methods decode it through the
// type registry; Response is exposed for callers that need the wire form.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Error returns the *APIError carried by a failure envelope, or nil for
// success statuses.
func (r *Response) Error() error {
	if r.StatusCode < http.StatusBadRequest {
		return nil
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(r.Body, &env)
	msg := env.Error.Message
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	return &APIError{Status: r.StatusCode, Code: env.Error.Code, Message: msg}
}

// envelope decodes the success envelope into a wire map, honoring the
// response Content-Type.
func (r *Response) envelope() (map[string]any, error) {
	mediaType := r.Headers.Get("Content-Type")
	if mediaType == "" {
		mediaType = codec.MediaTypeJSON
	}
	raw, err := codec.Parse(string(r.Body), mediaType)
	if err != nil {
		return nil, err
	}
	env, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected envelope shape %T", raw)
	}
	return env, nil
}
