package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chengwu26/heart-rate-monitor/internal/store"
)

// heartRateResponse is the JSON body of GET /heart-rate. BPM and TSMillis
// are null until the first notification decodes, so clients can tell
// "no data yet" from a reading of zero.
type heartRateResponse struct {
	BPM              *uint16  `json:"bpm"`
	Status           string   `json:"status"`
	TSMillis         *int64   `json:"ts_millis"`
	RRIntervals      []uint16 `json:"rr_intervals,omitempty"`
	SensorContact    string   `json:"sensor_contact,omitempty"`
	EnergyKJ         *uint16  `json:"energy_kj,omitempty"`
	ReconnectAttempt int      `json:"reconnect_attempt,omitempty"`
	DisconnectReason string   `json:"disconnect_reason,omitempty"`
	UpdatedAtMillis  int64    `json:"updated_at_millis"`
}

// heartRate answers immediately from the latest snapshot; it never waits
// for a BLE event.
func (h *Handler) heartRate(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotResponse(h.store.Snapshot()))
}

func snapshotResponse(snap store.Snapshot) heartRateResponse {
	resp := heartRateResponse{
		Status:           snap.Status.String(),
		ReconnectAttempt: snap.Attempt,
		DisconnectReason: snap.Reason,
		UpdatedAtMillis:  snap.UpdatedAt.UnixMilli(),
	}
	if snap.Reading != nil {
		r := snap.Reading
		resp.BPM = &r.BPM
		ts := r.ReceivedAt.UnixMilli()
		resp.TSMillis = &ts
		resp.RRIntervals = r.RRIntervals
		resp.SensorContact = r.Contact.String()
		if r.EnergyExpended {
			resp.EnergyKJ = &r.EnergyKJ
		}
	}
	return resp
}
