package bridge

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/response"
)

type addResultRequest struct {
	CommandID string `json:"commandId" validate:"required,max=128"`
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

type addResultResponse struct {
	OK        bool   `json:"ok"`
	CommandID string `json:"commandId"`
	Timestamp int64  `json:"timestamp"`
}

type resultQuery struct {
	ID      string `path:"id" query:"-"`
	Wait    bool   `query:"wait"`
	Timeout int64  `query:"timeout" validate:"gte=0"`
}

type resultStatus struct {
	CommandID string             `json:"commandId"`
	Status    correlation.Status `json:"status"`
	HasResult bool               `json:"hasResult"`
	Success   *bool              `json:"success,omitempty"`
}

// addResult handles POST /api/results, the executor's report endpoint.
func (a *App) addResult(ctx *Context) handler.Response {
	var req addResultRequest
	if err := ctx.BindJSON(&req); err != nil {
		return response.Error(err)
	}

	stored, err := a.correlator.AddResult(correlation.Result{
		CommandID: req.CommandID,
		Success:   req.Success,
		Data:      req.Data,
		Error:     req.Error,
		Timestamp: req.Timestamp,
	})
	switch {
	case errors.Is(err, correlation.ErrClosed):
		return response.Error(response.ErrServiceUnavailable)
	case err != nil:
		return response.Error(response.ErrBadRequest.WithError(err))
	}

	// A result for a command still queued means the executor got it elsewhere.
	a.outbox.Remove(stored.CommandID)
	a.metrics.resultsReceived.WithLabelValues(strconv.FormatBool(stored.Success)).Inc()

	return response.JSON(addResultResponse{
		OK:        true,
		CommandID: stored.CommandID,
		Timestamp: stored.Timestamp,
	})
}

// getResult handles GET /api/results/{id}.
//
// Immediate mode answers 200 with the result, 202 while the command is
// pending and 404 for unknown ids. With ?wait=true the request is held up to
// ?timeout=<ms>; on expiry it answers 408 for pending ids and 404 otherwise.
func (a *App) getResult(ctx *Context) handler.Response {
	var q resultQuery
	if err := ctx.BindQuery(&q); err != nil {
		return response.Error(err)
	}
	id := q.ID

	if res, ok := a.correlator.GetResult(id); ok {
		a.metrics.longPolls.WithLabelValues("results", outcomeImmediate).Inc()
		return response.JSON(res)
	}

	if !q.Wait {
		if a.correlator.HasPendingCommand(id) {
			return response.WithNoCache(response.JSONWithStatus(a.status(id), http.StatusAccepted))
		}
		return response.Error(errUnknownCommand(id))
	}

	timeout := q.Timeout
	if timeout == 0 {
		timeout = DefaultWaitMillis
	}

	start := time.Now()
	res, ok := a.correlator.WaitForResult(ctx, id, waitTimeout(timeout))
	a.metrics.waitDuration.WithLabelValues("results").Observe(time.Since(start).Seconds())
	if ok {
		a.metrics.longPolls.WithLabelValues("results", outcomeResult).Inc()
		return response.JSON(res)
	}

	if a.correlator.HasPendingCommand(id) {
		a.metrics.longPolls.WithLabelValues("results", outcomeTimeout).Inc()
		return response.Error(response.ErrRequestTimeout.
			WithMessage("timed out waiting for result").
			WithDetails(map[string]any{"commandId": id}))
	}
	a.metrics.longPolls.WithLabelValues("results", outcomeUnknown).Inc()
	return response.Error(errUnknownCommand(id))
}

// resultStatus handles GET /api/results/{id}/status.
func (a *App) resultStatus(ctx *Context) handler.Response {
	return response.WithNoCache(response.JSON(a.status(ctx.Param("id"))))
}

func (a *App) status(id string) resultStatus {
	st := resultStatus{CommandID: id, Status: a.correlator.Status(id)}
	if res, ok := a.correlator.GetResult(id); ok {
		st.Status = correlation.StatusCompleted
		st.HasResult = true
		st.Success = &res.Success
	}
	return st
}

func errUnknownCommand(id string) error {
	return response.ErrNotFound.
		WithMessage("no result or pending command with this id").
		WithDetails(map[string]any{"commandId": id})
}
