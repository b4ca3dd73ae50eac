package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Lifeline/internal/models"
	"Lifeline/pkg/logger"

	"go.uber.org/zap"
)

// AckPolicy 派发后把告警推进到 acknowledged 的条件
type AckPolicy string

const (
	AckAny AckPolicy = "any" // 任一通道成功即确认（默认）
	AckAll AckPolicy = "all" // 全部通道成功才确认
)

// DefaultAttemptTimeout 单通道尝试的默认时限
const DefaultAttemptTimeout = 5 * time.Second

// DispatchResult 一次派发周期的聚合结果。
// OverallSuccess 恒为"所有通道都成功"；状态推进策略另由 AckPolicy 控制。
type DispatchResult struct {
	OverallSuccess bool             `json:"overall_success"`
	Outcomes       []ChannelOutcome `json:"outcomes"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// Coordinator 通知协调器：对一条告警扇出全部适用通道，
// 在屏障处等齐所有结果后聚合，并恰好一次地推进告警状态。
type Coordinator struct {
	channels  []Channel
	timeout   time.Duration
	ackPolicy AckPolicy
}

// NewCoordinator 按通道表构造协调器
func NewCoordinator(channels ...Channel) *Coordinator {
	return &Coordinator{
		channels:  channels,
		timeout:   DefaultAttemptTimeout,
		ackPolicy: AckAny,
	}
}

// WithTimeout 配置单通道尝试时限
func (co *Coordinator) WithTimeout(d time.Duration) *Coordinator {
	if d > 0 {
		co.timeout = d
	}
	return co
}

// WithAckPolicy 配置状态推进策略
func (co *Coordinator) WithAckPolicy(p AckPolicy) *Coordinator {
	if p == AckAny || p == AckAll {
		co.ackPolicy = p
	}
	return co
}

// Dispatch 执行一次派发周期。
// 通道彼此独立并发执行，互不可见；屏障等齐所有结果，不暴露部分结果。
// 本方法自身不返回错误：通道失败折叠进 outcome，最坏情况是
// 告警停留在 pending 且所有 outcome 失败，这是合法状态而非错误。
func (co *Coordinator) Dispatch(ctx context.Context, alert *models.AlertRecord, contacts []models.Contact, deviceTokens []string) *DispatchResult {
	started := time.Now()
	rcpt := DeriveRecipients(contacts, deviceTokens)

	var applicable []Channel
	for _, ch := range co.channels {
		if ch.Applicable == nil || ch.Applicable(rcpt) {
			applicable = append(applicable, ch)
		}
	}

	outcomes := make([]ChannelOutcome, len(applicable))
	var wg sync.WaitGroup
	for i, ch := range applicable {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			outcomes[i] = co.attempt(ctx, ch, alert, rcpt)
		}(i, ch)
	}
	wg.Wait()

	result := &DispatchResult{OverallSuccess: true, Outcomes: outcomes}
	anySuccess := false
	for _, o := range outcomes {
		if o.Success {
			anySuccess = true
		} else {
			result.OverallSuccess = false
		}
	}

	// 状态在屏障之后恰好推进一次，且绝不由本组件推到 resolved
	acknowledged := anySuccess
	if co.ackPolicy == AckAll {
		acknowledged = result.OverallSuccess
	}
	if acknowledged {
		if err := alert.SetStatus(models.StatusAcknowledged); err != nil {
			logger.Warn("alert status not advanced", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	alert.MarkDispatched(time.Now())
	result.Elapsed = time.Since(started)
	return result
}

// attempt 以限时方式执行单个通道；超时与 panic 都折叠为失败结果而非丢失任务
func (co *Coordinator) attempt(ctx context.Context, ch Channel, alert *models.AlertRecord, rcpt Recipients) ChannelOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, co.timeout)
	defer cancel()

	done := make(chan ChannelOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failed(ch.Kind, fmt.Errorf("channel panic: %v", r))
			}
		}()
		done <- ch.Attempt(attemptCtx, alert, rcpt)
	}()

	select {
	case out := <-done:
		return out
	case <-attemptCtx.Done():
		return ChannelOutcome{
			Kind:    ch.Kind,
			Success: false,
			Detail:  fmt.Sprintf("attempt timed out after %s", co.timeout),
		}
	}
}
