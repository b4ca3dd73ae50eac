package dispatch

import (
	"context"
	"fmt"

	"Lifeline/internal/models"
)

// ChannelKind 通知通道类型
type ChannelKind string

const (
	KindSMS       ChannelKind = "sms"
	KindEmail     ChannelKind = "email"
	KindPush      ChannelKind = "push"
	KindAuthority ChannelKind = "authority"
)

// ChannelOutcome 单个通道一次投递尝试的结果，创建后不再修改
type ChannelOutcome struct {
	Kind    ChannelKind `json:"channel"`
	Success bool        `json:"success"`
	Detail  string      `json:"detail"`
}

// Recipients 一次派发派生出的各通道收件人集合
type Recipients struct {
	Phones       []string
	Emails       []string
	DeviceTokens []string
}

// AttemptFunc 执行一次投递尝试。实现不得向外抛错：
// 任何内部失败都折叠进 outcome，保证兄弟通道不受影响。
type AttemptFunc func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome

// Channel 通道表项（kind + 适用性判断 + 尝试函数），取代子类继承
type Channel struct {
	Kind       ChannelKind
	Applicable func(rcpt Recipients) bool
	Attempt    AttemptFunc
}

func succeeded(kind ChannelKind, detail string) ChannelOutcome {
	return ChannelOutcome{Kind: kind, Success: true, Detail: detail}
}

func failed(kind ChannelKind, err error) ChannelOutcome {
	return ChannelOutcome{Kind: kind, Success: false, Detail: err.Error()}
}

func alwaysApplicable(Recipients) bool { return true }

// DeriveRecipients 从联系人列表派生电话/邮箱收件人；设备令牌由调用方会话提供
func DeriveRecipients(contacts []models.Contact, deviceTokens []string) Recipients {
	var rcpt Recipients
	for _, c := range contacts {
		if c.Phone != "" {
			rcpt.Phones = append(rcpt.Phones, c.Phone)
		}
		if c.Email != "" {
			rcpt.Emails = append(rcpt.Emails, c.Email)
		}
	}
	rcpt.DeviceTokens = deviceTokens
	return rcpt
}

func alertSummary(alert *models.AlertRecord) string {
	if alert.Location != nil {
		return fmt.Sprintf("[%s] %s @ %s (%.4f, %.4f)",
			alert.Category, alert.Message, alert.Location.Address,
			alert.Location.Latitude, alert.Location.Longitude)
	}
	return fmt.Sprintf("[%s] %s", alert.Category, alert.Message)
}
