package dispatch

import (
	"context"
	"fmt"

	"Lifeline/internal/models"
)

const pushTitle = "🚨 EMERGENCY"

// PushSender 推送发送器，pkg/notification 提供实现
type PushSender interface {
	PushToDevices(ctx context.Context, tokens []string, title, content string, extras map[string]interface{}) error
}

// PushChannel 推送通道。与短信/邮件不同，推送始终参与派发：
// 设备令牌来自调用方会话而非联系人列表，没有令牌时也记录一条结果。
func PushChannel(sender PushSender) Channel {
	return Channel{
		Kind:       KindPush,
		Applicable: alwaysApplicable,
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			if len(rcpt.DeviceTokens) == 0 {
				return succeeded(KindPush, "push delivered to 0 device(s), no registered tokens")
			}
			extras := map[string]interface{}{
				"alert_id": alert.ID,
				"category": string(alert.Category),
				"severity": alert.Severity,
			}
			if err := sender.PushToDevices(ctx, rcpt.DeviceTokens, pushTitle, alertSummary(alert), extras); err != nil {
				return failed(KindPush, err)
			}
			return succeeded(KindPush, fmt.Sprintf("push delivered to %d device(s)", len(rcpt.DeviceTokens)))
		},
	}
}
