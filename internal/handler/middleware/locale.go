package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"amenpay/internal/pkg/cookie"
	"amenpay/internal/pkg/i18n"
)

const (
	ctxLocaleKey    = "locale"
	ctxIsRTLKey     = "is_rtl"
	ctxDirectionKey = "direction"
)

// LocaleMiddleware resolves the request locale: explicit query parameter,
// then X-Locale header, then the locale cookie, then Accept-Language.
// Anything unresolvable falls back to Arabic.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("lang")
		if raw == "" {
			raw = c.GetHeader("X-Locale")
		}
		if raw == "" {
			raw = cookie.GetLocale(c)
		}
		if raw == "" {
			raw = preferredFromAcceptLanguage(c.GetHeader("Accept-Language"))
		}

		locale := i18n.NewLocale(raw)
		c.Set(ctxLocaleKey, locale)
		c.Set(ctxIsRTLKey, locale.IsRTL())
		c.Set(ctxDirectionKey, locale.Direction())
		c.Header("Content-Language", locale.String())
		c.Next()
	}
}

func preferredFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if len(lang) >= 2 {
			switch strings.ToLower(lang[:2]) {
			case "ar":
				return "ar"
			case "en":
				return "en"
			}
		}
	}
	return ""
}

// GetLocale returns the locale resolved for this request; Arabic when the
// middleware did not run.
func GetLocale(c *gin.Context) i18n.Locale {
	if v, exists := c.Get(ctxLocaleKey); exists {
		if locale, ok := v.(i18n.Locale); ok {
			return locale
		}
	}
	return i18n.LocaleArabic
}
