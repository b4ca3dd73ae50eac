package listeners

import (
	"Lifeline/internal/models"
	"Lifeline/pkg/config"
	"Lifeline/pkg/logger"
	"Lifeline/pkg/notification"
	"Lifeline/pkg/registry"
	"Lifeline/pkg/util"

	"go.uber.org/zap"
)

func InitUserListeners() {
	// register initialized listener - Send Welcome Email
	util.Sig().Connect(models.SigUserCreate, func(sender any, params ...any) {
		user := sender.(*models.User)
		if user.Email == "" {
			return
		}

		go func() {
			mailer, ok := registry.Get(registry.KeyMailer)
			m, cast := mailer.(*notification.MailNotification)
			if !ok || !cast {
				m = notification.NewMailNotification(config.GlobalConfig.Mail)
			}
			err := m.SendWelcomeEmail(
				user.Email,
				user.Username,
				config.GlobalConfig.FunctionBaseURL+"/verify",
			)
			if err != nil {
				logger.Warn("send mail failed", zap.Error(err))
			}
		}()
	})

	util.Sig().Connect(models.SigUserLogin, func(sender any, params ...any) {
		user := sender.(*models.User)
		logger.Info("user signed in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	})
}
