package bridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/handler"
	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
	"github.com/dmitrymomot/pluginbridge/core/response"
)

type submitCommandRequest struct {
	ID      string `json:"id" validate:"omitempty,max=128"`
	Type    string `json:"type" validate:"required,max=128"`
	Payload any    `json:"payload"`
	Target  string `json:"target" validate:"omitempty,max=128"`
}

type submitCommandQuery struct {
	Wait int64 `query:"wait" validate:"gte=0"`
}

type commandAccepted struct {
	CommandID string             `json:"commandId"`
	Status    correlation.Status `json:"status"`
}

type commandList struct {
	Commands []correlation.Command `json:"commands"`
	Count    int                   `json:"count"`
}

type nextCommandQuery struct {
	Timeout int64 `query:"timeout" validate:"gte=0"`
}

// submitCommand handles POST /api/commands. The command is registered as
// pending and queued for the executor. With ?wait=<ms> the request is held
// until the result arrives.
func (a *App) submitCommand(ctx *Context) handler.Response {
	var q submitCommandQuery
	if err := ctx.BindQuery(&q); err != nil {
		return response.Error(err)
	}
	var req submitCommandRequest
	if err := ctx.BindJSON(&req); err != nil {
		return response.Error(err)
	}

	cmd := correlation.Command{
		ID:        req.ID,
		Type:      req.Type,
		Payload:   req.Payload,
		Target:    req.Target,
		CreatedAt: time.Now().UTC(),
	}

	id, err := a.correlator.Submit(cmd)
	switch {
	case errors.Is(err, correlation.ErrDuplicateCommandID):
		a.metrics.commandsRejected.WithLabelValues("duplicate").Inc()
		return response.Error(response.ErrConflict.WithMessage("command id already in use"))
	case errors.Is(err, correlation.ErrClosed):
		return response.Error(response.ErrServiceUnavailable)
	case err != nil:
		return response.Error(err)
	}
	cmd.ID = id

	if err := a.outbox.Push(cmd); err != nil {
		a.correlator.ClearPending(id)
		a.metrics.commandsRejected.WithLabelValues("queue_full").Inc()
		a.logger.WarnContext(ctx, "command rejected",
			logger.Component("app"),
			logger.CommandID(id),
			logger.Error(err))
		if errors.Is(err, outbox.ErrQueueFull) {
			return response.Error(response.ErrServiceUnavailable.WithMessage("command queue is full"))
		}
		return response.Error(err)
	}
	a.metrics.commandsSubmitted.Inc()

	if q.Wait <= 0 {
		return response.JSONWithStatus(commandAccepted{CommandID: id, Status: correlation.StatusPending}, http.StatusAccepted)
	}

	start := time.Now()
	res, ok := a.correlator.WaitForResult(ctx, id, waitTimeout(q.Wait))
	a.metrics.waitDuration.WithLabelValues("commands").Observe(time.Since(start).Seconds())
	if !ok {
		a.metrics.longPolls.WithLabelValues("commands", outcomeTimeout).Inc()
		return response.Error(response.ErrRequestTimeout.
			WithMessage("command did not complete in time").
			WithDetails(map[string]any{"commandId": id}))
	}
	a.metrics.longPolls.WithLabelValues("commands", outcomeResult).Inc()
	return response.JSON(res)
}

// listCommands handles GET /api/commands.
func (a *App) listCommands(*Context) handler.Response {
	cmds := a.outbox.List()
	return response.JSON(commandList{Commands: cmds, Count: len(cmds)})
}

// nextCommand handles GET /api/commands/next, the executor's pull endpoint.
func (a *App) nextCommand(ctx *Context) handler.Response {
	var q nextCommandQuery
	if err := ctx.BindQuery(&q); err != nil {
		return response.Error(err)
	}

	start := time.Now()
	cmd, ok := a.outbox.Next(ctx, waitTimeout(q.Timeout))
	if q.Timeout > 0 {
		a.metrics.waitDuration.WithLabelValues("next").Observe(time.Since(start).Seconds())
	}
	if !ok {
		a.metrics.longPolls.WithLabelValues("next", outcomeTimeout).Inc()
		return response.NoContent()
	}
	a.metrics.longPolls.WithLabelValues("next", outcomeResult).Inc()
	return response.JSON(cmd)
}

// withdrawCommand handles DELETE /api/commands/{id} for commands the
// executor has not picked up yet.
func (a *App) withdrawCommand(ctx *Context) handler.Response {
	if !a.outbox.Remove(ctx.Param("id")) {
		return response.Error(response.ErrNotFound.WithMessage("command is not queued"))
	}
	return response.NoContent()
}
