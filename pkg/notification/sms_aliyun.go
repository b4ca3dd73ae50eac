package notification

import (
	"context"
	"fmt"
)

type AliyunSMSConfig struct {
	AccessKeyId     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string // 默认 cn-hangzhou
}

type AliyunSMS struct {
	cfg AliyunSMSConfig
	cli AliyunSMSClient
}

// AliyunSMSClient 便于替换/注入的发送接口（适配真实 SDK）
type AliyunSMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

func NewAliyunSMS(cfg AliyunSMSConfig, cli AliyunSMSClient) *AliyunSMS {
	return &AliyunSMS{cfg: cfg, cli: cli}
}

// SendAlert 向一批手机号群发告警模板短信，任一号码失败即返回错误
func (a *AliyunSMS) SendAlert(ctx context.Context, phones []string, params map[string]string) error {
	if a.cli == nil {
		return fmt.Errorf("AliyunSMSClient not configured")
	}
	for _, phone := range phones {
		if err := a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, params); err != nil {
			return fmt.Errorf("send sms to %s: %w", phone, err)
		}
	}
	return nil
}

// SendCode 发送验证码短信
func (a *AliyunSMS) SendCode(ctx context.Context, phone, code string) error {
	if a.cli == nil {
		return fmt.Errorf("AliyunSMSClient not configured")
	}
	params := map[string]string{"code": code}
	return a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, params)
}
