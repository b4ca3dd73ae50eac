package listeners

import (
	"strconv"

	"Lifeline/internal/dispatch"
	"Lifeline/internal/models"
	"Lifeline/pkg/metrics"
	"Lifeline/pkg/sse"
	"Lifeline/pkg/util"
	"Lifeline/pkg/websocket"
)

// AlertEventSinks 告警事件的下游投递端，均可为 nil
type AlertEventSinks struct {
	Hub     *websocket.Hub
	SSE     *sse.Hub
	Monitor *metrics.Monitor
}

// InitAlertListeners 把告警生命周期信号接到实时推送与指标
func InitAlertListeners(sinks AlertEventSinks) {
	util.Sig().Connect(models.SigAlertCreated, func(sender any, params ...any) {
		alert := sender.(*models.AlertRecord)
		if sinks.Monitor != nil {
			sinks.Monitor.RecordAlertCreated(string(alert.Category))
		}
		pushAlertEvent(sinks, websocket.MessageTypeAlertCreated, alert, nil)
	})

	util.Sig().Connect(models.SigAlertDispatched, func(sender any, params ...any) {
		alert := sender.(*models.AlertRecord)
		var result *dispatch.DispatchResult
		if len(params) > 0 {
			result, _ = params[0].(*dispatch.DispatchResult)
		}
		if sinks.Monitor != nil && result != nil {
			sinks.Monitor.RecordDispatch(string(alert.Category), result.OverallSuccess, result.Elapsed)
			for _, o := range result.Outcomes {
				sinks.Monitor.RecordChannelOutcome(string(o.Kind), o.Success)
			}
		}
		pushAlertEvent(sinks, websocket.MessageTypeAlertDispatched, alert, result)
	})

	util.Sig().Connect(models.SigAlertResolved, func(sender any, params ...any) {
		alert := sender.(*models.AlertRecord)
		pushAlertEvent(sinks, websocket.MessageTypeAlertResolved, alert, nil)
	})
}

func pushAlertEvent(sinks AlertEventSinks, event string, alert *models.AlertRecord, result *dispatch.DispatchResult) {
	payload := map[string]any{
		"event":    event,
		"alert_id": alert.ID,
		"category": alert.Category,
		"status":   alert.Status,
	}
	if result != nil {
		payload["overall_success"] = result.OverallSuccess
		payload["outcomes"] = result.Outcomes
	}

	if sinks.Hub != nil {
		sinks.Hub.SendTo(strconv.FormatUint(uint64(alert.UserID), 10), &websocket.Message{
			Type: event,
			Data: payload,
		})
	}
	if sinks.SSE != nil {
		sinks.SSE.SendEventTo(strconv.FormatUint(uint64(alert.UserID), 10), event, payload)
	}
}
