package notification

import (
	"context"

	"Lifeline/pkg/logger"

	"go.uber.org/zap"
)

// 本文件提供各通道的本地模拟客户端：记录日志并返回成功。
// 未配置真实服务商凭据时由 main 注入，投递结果确定可复现。

// SimulatedSMSClient 模拟短信网关
type SimulatedSMSClient struct{}

func (SimulatedSMSClient) Send(ctx context.Context, phone, sign, template string, params map[string]string) error {
	logger.Info("simulated sms delivery",
		zap.String("phone", phone),
		zap.String("template", template),
		zap.Any("params", params))
	return nil
}

// SimulatedPushClient 模拟推送网关
type SimulatedPushClient struct{}

func (SimulatedPushClient) Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error {
	logger.Info("simulated push delivery",
		zap.String("title", title),
		zap.Any("audience", audience))
	return nil
}

// SimulatedMailSender 模拟 SMTP 投递
type SimulatedMailSender struct{}

func (SimulatedMailSender) Send(ctx context.Context, to []string, subject, body string) error {
	logger.Info("simulated mail delivery",
		zap.Strings("to", to),
		zap.String("subject", subject))
	return nil
}
