package dispatch

import (
	"context"
	"fmt"

	"Lifeline/internal/models"
)

// SMSSender 短信发送器，pkg/notification 提供实现
type SMSSender interface {
	SendAlert(ctx context.Context, phones []string, params map[string]string) error
}

// SMSChannel 短信通道，仅当存在带手机号的联系人时参与派发
func SMSChannel(sender SMSSender) Channel {
	return Channel{
		Kind: KindSMS,
		Applicable: func(rcpt Recipients) bool {
			return len(rcpt.Phones) > 0
		},
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			params := map[string]string{
				"category": string(alert.Category),
				"message":  alertSummary(alert),
			}
			if err := sender.SendAlert(ctx, rcpt.Phones, params); err != nil {
				return failed(KindSMS, err)
			}
			return succeeded(KindSMS, fmt.Sprintf("sms delivered to %d recipient(s)", len(rcpt.Phones)))
		},
	}
}
