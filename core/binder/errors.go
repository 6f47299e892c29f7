package binder

import "errors"

var (
	// ErrUnsupportedMediaType indicates the Content-Type header names a media
	// type the binder does not accept.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrFailedToParseJSON indicates the request body is not valid JSON or
	// does not match the target type.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrRequestTooLarge indicates the body exceeded the configured size limit.
	ErrRequestTooLarge = errors.New("request body too large")

	// ErrFailedToParseQuery indicates query parameter parsing failed,
	// typically due to type conversion errors.
	ErrFailedToParseQuery = errors.New("failed to parse query parameters")

	// ErrFailedToParsePath indicates path parameter extraction or conversion failed.
	ErrFailedToParsePath = errors.New("failed to parse path parameters")

	// ErrMissingContentType indicates the request lacks a Content-Type header.
	ErrMissingContentType = errors.New("missing content type")

	// ErrValidation indicates the bound value failed struct validation.
	// The concrete error is a ValidationErrors.
	ErrValidation = errors.New("validation failed")
)
