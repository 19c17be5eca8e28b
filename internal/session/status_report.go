package session

import (
	"time"

	"predictd/pkg/types"
)

// Status builds a detailed status response for /status.
func (c *Controller) Status() types.StatusResponse {
	s := c.Snapshot()
	now := time.Now()
	return types.StatusResponse{
		SessionID:        s.SessionID,
		State:            string(s.State),
		ModelID:          s.ModelID,
		Policy:           string(s.Policy),
		GPUCapable:       s.GPUCapable,
		EngineLoaded:     s.EngineLoaded,
		LastError:        s.Err,
		LoadsTotal:       c.loads.Load(),
		PredictionsTotal: c.predictions.Load(),
		UptimeSeconds:    int64(now.Sub(c.startTime) / time.Second),
		ServerTimeUnix:   now.Unix(),
	}
}
