package eventbus

import (
	"time"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

type failoverEventDto struct {
	NodeID string `json:"node_id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
	TsMs   int64  `json:"ts_ms"`
}

func toDto(e models.FailoverEvent) failoverEventDto {
	return failoverEventDto{
		NodeID: e.NodeID,
		From:   e.From.String(),
		To:     e.To.String(),
		Reason: e.Reason,
		TsMs:   e.At.UnixMilli(),
	}
}

func (d failoverEventDto) toModel() (models.FailoverEvent, error) {
	from, err := models.ParseBackend(d.From)
	if err != nil {
		return models.FailoverEvent{}, err
	}
	to, err := models.ParseBackend(d.To)
	if err != nil {
		return models.FailoverEvent{}, err
	}
	return models.FailoverEvent{
		NodeID: d.NodeID,
		From:   from,
		To:     to,
		Reason: d.Reason,
		At:     time.UnixMilli(d.TsMs),
	}, nil
}
