package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/response"
)

// CheckTimeout bounds a single dependency check.
const CheckTimeout = 5 * time.Second

const (
	StatusReady    = "READY"
	StatusNotReady = "NOT_READY"
	StatusOK       = "ok"
)

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readiness verifies all service dependencies are functioning.
// Responds 200 with a Report when every check passes, 503 with the same
// shape when any fails. Failed checks carry their error message.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx C) handler.Response {
		report := Run(ctx, checks...)
		if report.Status != StatusReady {
			for name, result := range report.Checks {
				if result != StatusOK {
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component("health"),
						slog.String("check", name),
						slog.String("error", result))
				}
			}
			return response.JSONWithStatus(report, http.StatusServiceUnavailable)
		}
		return response.JSON(report)
	}
}

// Run executes checks concurrently and collects the results.
func Run(ctx context.Context, checks ...Check) Report {
	report := Report{
		Status: StatusReady,
		Checks: make(map[string]string, len(checks)),
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	for _, c := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, CheckTimeout)
			defer cancel()

			result := StatusOK
			if err := c.Fn(cctx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			report.Checks[c.Name] = result
			if result != StatusOK {
				report.Status = StatusNotReady
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}
