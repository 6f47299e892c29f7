// Package binder maps HTTP request data onto Go structs and validates them.
//
// Binders exist for JSON bodies, query strings and path parameters. Struct
// tags pick the source names:
//
//	type ResultQuery struct {
//		ID      string `path:"id" validate:"required"`
//		Wait    bool   `query:"wait"`
//		Timeout int64  `query:"timeout" validate:"gte=0"`
//	}
//
// Bind runs several binders in order and then validates the target with
// github.com/go-playground/validator/v10:
//
//	var q ResultQuery
//	err := binder.Bind(r, &q, binder.Path(chi.URLParam), binder.Query())
//
// Decoding failures wrap one of the package sentinel errors
// (ErrFailedToParseJSON, ErrUnsupportedMediaType, ...). Validation failures
// are ValidationErrors, which match ErrValidation with errors.Is and list
// the failing fields by JSON name.
package binder
