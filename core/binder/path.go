package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path binds route parameters using `path` struct tags. The extractor maps a
// parameter name to its value, e.g. chi.URLParam. Empty values leave the
// field untouched.
func Path(extractor func(r *http.Request, name string) string) Binder {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: nil extractor", ErrFailedToParsePath)
		}
		err := structFields(v, "path", func(name string, field reflect.Value, sf reflect.StructField) error {
			val := extractor(r, name)
			if val == "" {
				return nil
			}
			return setValue(field, sf.Type, []string{val})
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParsePath, err)
		}
		return nil
	}
}
