package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize is the default maximum size for JSON request bodies (1MB).
const DefaultMaxJSONSize = 1 << 20

// JSONConfig configures the JSON binder.
type JSONConfig struct {
	// MaxSize limits the body size in bytes (default: DefaultMaxJSONSize).
	MaxSize int64
	// DisallowUnknownFields rejects bodies with fields the target lacks.
	DisallowUnknownFields bool
}

// JSON creates a JSON binder with default configuration. Unknown fields
// are ignored so executors may send extra metadata.
func JSON() Binder {
	return JSONWithConfig(JSONConfig{})
}

// JSONWithConfig creates a JSON binder.
//
// Example:
//
//	var req CommandResultRequest
//	if err := binder.JSON()(r, &req); err != nil {
//		return response.Error(response.ErrBadRequest.WithError(err))
//	}
func JSONWithConfig(cfg JSONConfig) Binder {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxJSONSize
	}

	return func(r *http.Request, v any) error {
		// Fail fast if the client already went away
		if err := r.Context().Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		if r.Body == nil {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		// Read one extra byte to detect oversized bodies
		body, err := io.ReadAll(io.LimitReader(r.Body, cfg.MaxSize+1))
		if err != nil {
			return fmt.Errorf("%w: failed to read request body: %v", ErrFailedToParseJSON, err)
		}
		if int64(len(body)) > cfg.MaxSize {
			return fmt.Errorf("%w: max %d bytes", ErrRequestTooLarge, cfg.MaxSize)
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		if cfg.DisallowUnknownFields {
			decoder.DisallowUnknownFields()
		}

		if err := decoder.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		// Reject trailing data after the first JSON value
		var extra json.RawMessage
		if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
		}

		return nil
	}
}
