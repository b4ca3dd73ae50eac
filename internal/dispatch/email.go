package dispatch

import (
	"context"
	"fmt"

	"Lifeline/internal/models"
)

// 邮件主题固定，与短信模板一样不按告警定制
const emailSubject = "EMERGENCY ALERT"

// EmailSender 邮件发送器，pkg/notification 提供实现
type EmailSender interface {
	SendAlertEmail(ctx context.Context, to []string, subject, body string) error
}

// EmailChannel 邮件通道，仅当存在带邮箱的联系人时参与派发
func EmailChannel(sender EmailSender) Channel {
	return Channel{
		Kind: KindEmail,
		Applicable: func(rcpt Recipients) bool {
			return len(rcpt.Emails) > 0
		},
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			if err := sender.SendAlertEmail(ctx, rcpt.Emails, emailSubject, alertSummary(alert)); err != nil {
				return failed(KindEmail, err)
			}
			return succeeded(KindEmail, fmt.Sprintf("email delivered to %d recipient(s)", len(rcpt.Emails)))
		},
	}
}
