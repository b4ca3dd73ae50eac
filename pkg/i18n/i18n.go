package i18n

import (
	"encoding/json"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"Lifeline/pkg/logger"
)

// I18nSupport 国际化支持，告警接口的提示消息按请求语言本地化
type I18nSupport struct {
	bundle *i18n.Bundle
}

// NewI18nSupport 初始化国际化支持，加载 locales 下的中英文消息文件。
// 单个语言文件缺失只告警不报错，允许只部署一种语言。
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, file := range []string{"locales/zh.json", "locales/en.json"} {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			logger.Warn("加载语言文件失败", zap.String("file", file), zap.Error(err))
		}
	}

	return &I18nSupport{
		bundle: bundle,
	}, nil
}

// T 获取翻译文本，未命中时返回键名
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Warn("翻译缺失", zap.String("key", key), zap.Error(err))
		return key
	}

	return translation
}

// TWithDefaultLang 使用默认语言获取翻译文本
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Warn("翻译缺失", zap.String("key", key), zap.Error(err))
		return key
	}

	return translation
}
