package dispatch

import (
	"context"
	"fmt"

	"Lifeline/internal/models"
	"Lifeline/pkg/errors"

	"gorm.io/gorm"
)

// 类别到权威机构的闭集映射
var authorityByCategory = map[models.AlertCategory]string{
	models.CategoryMedical: "medical services",
	models.CategoryFire:    "fire department",
	models.CategoryPolice:  "police department",
	models.CategoryGeneral: "general emergency services",
}

const emergencyNumber = "911"

// AuthorityFor 返回类别对应的机构标签，未知类别落到通用机构
func AuthorityFor(category models.AlertCategory) string {
	if label, ok := authorityByCategory[category]; ok {
		return label
	}
	return authorityByCategory[models.CategoryGeneral]
}

// AuthorityRegistry 权威派发登记，落库必须先于下游调用且可幂等重试
type AuthorityRegistry interface {
	Register(ctx context.Context, alert *models.AlertRecord, authority string) error
}

// NotifyResult 下游通知函数的返回
type NotifyResult struct {
	Success          bool `json:"success"`
	ContactsNotified int  `json:"contactsNotified"`
}

// DownstreamNotifier 下游通知函数客户端，以告警所有者身份调用
type DownstreamNotifier interface {
	NotifyContacts(ctx context.Context, alertID string, userID uint) (*NotifyResult, error)
}

// DownstreamNotifierFunc 函数适配器
type DownstreamNotifierFunc func(ctx context.Context, alertID string, userID uint) (*NotifyResult, error)

func (f DownstreamNotifierFunc) NotifyContacts(ctx context.Context, alertID string, userID uint) (*NotifyResult, error) {
	return f(ctx, alertID, userID)
}

// AuthorityChannel 权威机构通道。无论联系人列表如何都参与派发，
// 先登记再调下游；其结果是升级决策的权威依据。
func AuthorityChannel(registry AuthorityRegistry, notifier DownstreamNotifier) Channel {
	return Channel{
		Kind:       KindAuthority,
		Applicable: alwaysApplicable,
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			authority := AuthorityFor(alert.Category)
			if err := registry.Register(ctx, alert, authority); err != nil {
				return failed(KindAuthority, fmt.Errorf("authority registration failed: %w", err))
			}
			result, err := notifier.NotifyContacts(ctx, alert.ID, alert.UserID)
			if err != nil {
				switch errors.GetCode(err) {
				case errors.CodeUnauthorized:
					return failed(KindAuthority, fmt.Errorf("downstream notifier rejected the call: unauthenticated"))
				case errors.CodeForbidden:
					return failed(KindAuthority, fmt.Errorf("downstream notifier rejected the call: alert owned by another user"))
				}
				return failed(KindAuthority, fmt.Errorf("downstream notifier unavailable: %w", err))
			}
			if !result.Success {
				return failed(KindAuthority, fmt.Errorf("downstream notifier reported failure"))
			}
			return succeeded(KindAuthority, fmt.Sprintf("dispatched to %s (%s), %d contact(s) notified",
				authority, emergencyNumber, result.ContactsNotified))
		},
	}
}

type gormAuthorityRegistry struct {
	db *gorm.DB
}

// NewAuthorityRegistry 基于数据库的登记实现
func NewAuthorityRegistry(db *gorm.DB) AuthorityRegistry {
	return &gormAuthorityRegistry{db: db}
}

func (r *gormAuthorityRegistry) Register(ctx context.Context, alert *models.AlertRecord, authority string) error {
	return models.RegisterAuthorityDispatch(r.db.WithContext(ctx), alert.ID, authority, emergencyNumber)
}
