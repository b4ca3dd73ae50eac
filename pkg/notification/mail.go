package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	Host     string
	Username string
	Password string
	Port     int64
	From     string
}

// MailSender 底层投递接口，便于注入模拟实现
type MailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type MailNotification struct {
	cfg    MailConfig
	sender MailSender
}

func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg, sender: &smtpSender{cfg: cfg}}
}

// WithSender 替换底层投递实现
func (m *MailNotification) WithSender(s MailSender) *MailNotification {
	m.sender = s
	return m
}

// SendWelcomeEmail 注册欢迎邮件
func (m *MailNotification) SendWelcomeEmail(to, name, verifyURL string) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to Lifeline. Please verify your email:\n%s\n", name, verifyURL)
	return m.sender.Send(context.Background(), []string{to}, "Welcome to Lifeline", body)
}

// SendAlertEmail 向联系人群发告警邮件
func (m *MailNotification) SendAlertEmail(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("not sending email, no recipients defined")
	}
	return m.sender.Send(ctx, to, subject, body)
}

type smtpSender struct {
	cfg MailConfig
}

func (s *smtpSender) Send(ctx context.Context, to []string, subject, body string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("mail host not configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(s.cfg.Host, int(s.cfg.Port), s.cfg.Username, s.cfg.Password)
	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
