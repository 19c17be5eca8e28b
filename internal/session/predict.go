package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Predict runs the model on a single textual numeric input and reports the
// outcome through OnResult or OnError. Without a live engine it returns
// without effect; callers gate on OnReady.
func (c *Controller) Predict(input string) {
	out, err := c.evaluate(input)
	switch {
	case err == nil:
		c.handlers.result(out)
	case IsNotReady(err):
		// silent by contract
	default:
		c.handlers.fail(err)
	}
}

// Infer is the synchronous form of Predict for request/response callers. It
// returns ErrNotReady instead of silently dropping the call and never invokes
// Handlers.
func (c *Controller) Infer(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.evaluate(input)
}

func (c *Controller) evaluate(input string) (string, error) {
	c.engMu.RLock()
	defer c.engMu.RUnlock()
	if c.engine == nil {
		return "", ErrNotReady
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(input), 32)
	if err != nil {
		predictionsTotal.WithLabelValues("parse_error").Inc()
		return "", newError(KindInputParse, fmt.Errorf("input %q is not a number", input))
	}
	in := []float32{float32(x)}
	out := make([]float32, 1)
	c.predictions.Add(1)
	c.runMu.Lock()
	err = runEngine(c.engine, in, out)
	c.runMu.Unlock()
	if err != nil {
		predictionsTotal.WithLabelValues("error").Inc()
		c.log.Error().Err(err).Msg("inference failed")
		return "", newError(KindInferenceExecution, err)
	}
	predictionsTotal.WithLabelValues("ok").Inc()
	return strconv.FormatFloat(float64(out[0]), 'g', -1, 32), nil
}

// runEngine converts engine panics into errors.
func runEngine(e Engine, in, out []float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panicked: %v", r)
		}
	}()
	return e.Run(in, out)
}
