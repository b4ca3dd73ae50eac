package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Lifeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlert(t *testing.T) *models.AlertRecord {
	t.Helper()
	a, err := models.NewAlertRecord(1, models.CategoryMedical, "need help", nil)
	require.NoError(t, err)
	return a
}

func stubChannel(kind ChannelKind, applicable func(Recipients) bool, outcome ChannelOutcome) Channel {
	return Channel{
		Kind:       kind,
		Applicable: applicable,
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			return outcome
		},
	}
}

func TestDeriveRecipients(t *testing.T) {
	contacts := []models.Contact{
		{Name: "a", Phone: "13800000001", Email: "a@example.com"},
		{Name: "b", Phone: "13800000002"},
		{Name: "c", Email: "c@example.com"},
		{Name: "d"},
	}
	rcpt := DeriveRecipients(contacts, []string{"tok-1"})
	assert.Equal(t, []string{"13800000001", "13800000002"}, rcpt.Phones)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, rcpt.Emails)
	assert.Equal(t, []string{"tok-1"}, rcpt.DeviceTokens)
}

func TestDispatchAllChannelsSucceed(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindSMS, func(r Recipients) bool { return len(r.Phones) > 0 }, succeeded(KindSMS, "ok")),
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
		stubChannel(KindAuthority, alwaysApplicable, succeeded(KindAuthority, "ok")),
	)
	alert := newTestAlert(t)
	contacts := []models.Contact{{Name: "a", Phone: "13800000001"}}

	result := co.Dispatch(context.Background(), alert, contacts, nil)

	assert.True(t, result.OverallSuccess)
	assert.Len(t, result.Outcomes, 3)
	assert.Equal(t, models.StatusAcknowledged, alert.Status)
	assert.NotNil(t, alert.DispatchedAt)
	assert.Greater(t, result.Elapsed, time.Duration(0))
}

func TestDispatchSkipsInapplicableChannels(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindSMS, func(r Recipients) bool { return len(r.Phones) > 0 }, succeeded(KindSMS, "ok")),
		stubChannel(KindEmail, func(r Recipients) bool { return len(r.Emails) > 0 }, succeeded(KindEmail, "ok")),
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
		stubChannel(KindAuthority, alwaysApplicable, succeeded(KindAuthority, "ok")),
	)
	alert := newTestAlert(t)

	// 没有任何联系人：短信与邮件不参与，推送与权威机构仍然派发
	result := co.Dispatch(context.Background(), alert, nil, nil)

	require.Len(t, result.Outcomes, 2)
	kinds := map[ChannelKind]bool{}
	for _, o := range result.Outcomes {
		kinds[o.Kind] = true
	}
	assert.True(t, kinds[KindPush])
	assert.True(t, kinds[KindAuthority])
	assert.False(t, kinds[KindSMS])
	assert.False(t, kinds[KindEmail])
}

func TestDispatchPartialFailure(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindSMS, alwaysApplicable, failed(KindSMS, fmt.Errorf("gateway down"))),
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
	)
	alert := newTestAlert(t)

	result := co.Dispatch(context.Background(), alert, nil, nil)

	assert.False(t, result.OverallSuccess)
	// 默认 any 策略：单通道成功即可确认
	assert.Equal(t, models.StatusAcknowledged, alert.Status)
}

func TestDispatchAckAllPolicy(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindSMS, alwaysApplicable, failed(KindSMS, fmt.Errorf("gateway down"))),
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
	).WithAckPolicy(AckAll)
	alert := newTestAlert(t)

	result := co.Dispatch(context.Background(), alert, nil, nil)

	assert.False(t, result.OverallSuccess)
	assert.Equal(t, models.StatusPending, alert.Status)
	assert.NotNil(t, alert.DispatchedAt)
}

func TestDispatchAllChannelsFail(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindSMS, alwaysApplicable, failed(KindSMS, fmt.Errorf("down"))),
		stubChannel(KindEmail, alwaysApplicable, failed(KindEmail, fmt.Errorf("down"))),
	)
	alert := newTestAlert(t)

	result := co.Dispatch(context.Background(), alert, nil, nil)

	assert.False(t, result.OverallSuccess)
	// 全失败不是错误：告警停留在 pending
	assert.Equal(t, models.StatusPending, alert.Status)
	for _, o := range result.Outcomes {
		assert.False(t, o.Success)
		assert.NotEmpty(t, o.Detail)
	}
}

func TestDispatchNeverResolves(t *testing.T) {
	co := NewCoordinator(
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
	)
	alert := newTestAlert(t)

	co.Dispatch(context.Background(), alert, nil, nil)

	assert.NotEqual(t, models.StatusResolved, alert.Status)
}

func TestDispatchTimeoutFoldedIntoOutcome(t *testing.T) {
	slow := Channel{
		Kind:       KindEmail,
		Applicable: alwaysApplicable,
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			select {
			case <-time.After(time.Second):
				return succeeded(KindEmail, "ok")
			case <-ctx.Done():
				return failed(KindEmail, ctx.Err())
			}
		},
	}
	co := NewCoordinator(
		slow,
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
	).WithTimeout(20 * time.Millisecond)
	alert := newTestAlert(t)

	result := co.Dispatch(context.Background(), alert, nil, nil)

	require.Len(t, result.Outcomes, 2)
	var email, push *ChannelOutcome
	for i := range result.Outcomes {
		switch result.Outcomes[i].Kind {
		case KindEmail:
			email = &result.Outcomes[i]
		case KindPush:
			push = &result.Outcomes[i]
		}
	}
	require.NotNil(t, email)
	require.NotNil(t, push)
	assert.False(t, email.Success)
	assert.True(t, push.Success)
	// 慢通道不拖垮兄弟通道，any 策略下状态照常推进
	assert.Equal(t, models.StatusAcknowledged, alert.Status)
}

func TestDispatchPanicFoldedIntoOutcome(t *testing.T) {
	panicking := Channel{
		Kind:       KindSMS,
		Applicable: alwaysApplicable,
		Attempt: func(ctx context.Context, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
			panic("boom")
		},
	}
	co := NewCoordinator(
		panicking,
		stubChannel(KindPush, alwaysApplicable, succeeded(KindPush, "ok")),
	)
	alert := newTestAlert(t)

	result := co.Dispatch(context.Background(), alert, nil, nil)

	require.Len(t, result.Outcomes, 2)
	for _, o := range result.Outcomes {
		if o.Kind == KindSMS {
			assert.False(t, o.Success)
			assert.Contains(t, o.Detail, "panic")
		}
	}
	assert.False(t, result.OverallSuccess)
}

func TestAuthorityFor(t *testing.T) {
	cases := []struct {
		category  models.AlertCategory
		authority string
	}{
		{models.CategoryMedical, "medical services"},
		{models.CategoryFire, "fire department"},
		{models.CategoryPolice, "police department"},
		{models.CategoryGeneral, "general emergency services"},
	}
	for _, tc := range cases {
		t.Run(string(tc.category), func(t *testing.T) {
			// 映射是确定性的：同一类别反复求值结果一致
			assert.Equal(t, tc.authority, AuthorityFor(tc.category))
			assert.Equal(t, AuthorityFor(tc.category), AuthorityFor(tc.category))
		})
	}

	t.Run("unknown category falls back to general", func(t *testing.T) {
		assert.Equal(t, "general emergency services", AuthorityFor(models.AlertCategory("flood")))
	})
}

func TestAuthorityChannelRegistersBeforeNotifying(t *testing.T) {
	var order []string
	registry := registryFunc(func(ctx context.Context, alert *models.AlertRecord, authority string) error {
		order = append(order, "register:"+authority)
		return nil
	})
	notifier := DownstreamNotifierFunc(func(ctx context.Context, alertID string, userID uint) (*NotifyResult, error) {
		order = append(order, "notify")
		return &NotifyResult{Success: true, ContactsNotified: 2}, nil
	})
	alert := newTestAlert(t)

	out := AuthorityChannel(registry, notifier).Attempt(context.Background(), alert, Recipients{})

	assert.True(t, out.Success)
	assert.Contains(t, out.Detail, "medical services")
	assert.Contains(t, out.Detail, "2 contact(s)")
	require.Equal(t, []string{"register:medical services", "notify"}, order)
}

func TestAuthorityChannelDownstreamFailure(t *testing.T) {
	registry := registryFunc(func(ctx context.Context, alert *models.AlertRecord, authority string) error {
		return nil
	})

	t.Run("transport error", func(t *testing.T) {
		notifier := DownstreamNotifierFunc(func(ctx context.Context, alertID string, userID uint) (*NotifyResult, error) {
			return nil, fmt.Errorf("connection refused")
		})
		out := AuthorityChannel(registry, notifier).Attempt(context.Background(), newTestAlert(t), Recipients{})
		assert.False(t, out.Success)
		assert.Contains(t, out.Detail, "unavailable")
	})

	t.Run("reported failure", func(t *testing.T) {
		notifier := DownstreamNotifierFunc(func(ctx context.Context, alertID string, userID uint) (*NotifyResult, error) {
			return &NotifyResult{Success: false}, nil
		})
		out := AuthorityChannel(registry, notifier).Attempt(context.Background(), newTestAlert(t), Recipients{})
		assert.False(t, out.Success)
	})

	t.Run("registration failure short-circuits", func(t *testing.T) {
		failingRegistry := registryFunc(func(ctx context.Context, alert *models.AlertRecord, authority string) error {
			return fmt.Errorf("db unavailable")
		})
		called := false
		notifier := DownstreamNotifierFunc(func(ctx context.Context, alertID string, userID uint) (*NotifyResult, error) {
			called = true
			return &NotifyResult{Success: true}, nil
		})
		out := AuthorityChannel(failingRegistry, notifier).Attempt(context.Background(), newTestAlert(t), Recipients{})
		assert.False(t, out.Success)
		assert.False(t, called)
	})
}

type registryFunc func(ctx context.Context, alert *models.AlertRecord, authority string) error

func (f registryFunc) Register(ctx context.Context, alert *models.AlertRecord, authority string) error {
	return f(ctx, alert, authority)
}
