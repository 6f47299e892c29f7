package binder

import (
	"fmt"
	"net/http"
)

// Query binds URL query parameters using `query` struct tags. Slices accept
// repeated or comma-separated values; time.Duration fields accept "5s" or
// a millisecond count.
//
//	type waitQuery struct {
//		Wait    bool          `query:"wait"`
//		Timeout time.Duration `query:"timeout"`
//	}
func Query() Binder {
	return func(r *http.Request, v any) error {
		if err := bindValues(v, "query", r.URL.Query()); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseQuery, err)
		}
		return nil
	}
}
