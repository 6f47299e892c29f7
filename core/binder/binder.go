package binder

import "net/http"

// Binder represents a function that binds HTTP request data to a Go value.
// It provides a unified interface for extracting and mapping data from various
// parts of an HTTP request (JSON body, path parameters, query parameters)
// into strongly-typed Go structures.
type Binder func(r *http.Request, v any) error

// Bind runs binders in order and validates v with its `validate` tags.
// The first failing binder stops the chain.
func Bind(r *http.Request, v any, binders ...Binder) error {
	for _, bind := range binders {
		if bind == nil {
			continue
		}
		if err := bind(r, v); err != nil {
			return err
		}
	}
	return Validate(v)
}
