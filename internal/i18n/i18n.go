package i18n

import (
	"fmt"
	"strings"

	"github.com/partnerdesk/internal/constants"

	"github.com/gin-gonic/gin"
)

// 语言标识，与 constants.SupportedLocales 保持一致
const (
	LocaleZH = constants.LocaleZhCN
	LocaleEN = constants.LocaleEnUS

	defaultLocale = LocaleZH
)

// ResolveLocale 解析请求语言：优先 lang 查询参数，其次 Accept-Language 头。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	if header := strings.TrimSpace(c.GetHeader("Accept-Language")); header != "" {
		// 只取权重最高的第一段
		first := header
		if idx := strings.IndexAny(header, ",;"); idx >= 0 {
			first = header[:idx]
		}
		return Normalize(first)
	}
	return defaultLocale
}

// Normalize 将任意语言标签归一化为受支持的语言标识。
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "en"):
		return LocaleEN
	case strings.HasPrefix(l, "zh"):
		return LocaleZH
	}
	return defaultLocale
}

// T 查询指定语言的文案，未命中时回退默认语言，再未命中返回键本身。
func T(locale, key string) string {
	normalized := Normalize(locale)
	if msg, ok := messages[normalized][key]; ok {
		return msg
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查询带占位符的文案并格式化。
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
