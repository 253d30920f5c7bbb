//go:build unit

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"amenpay/internal/handler/middleware"
	"amenpay/internal/pkg/cookie"
	"amenpay/internal/pkg/i18n"
)

type LocaleMiddlewareSuite struct {
	suite.Suite
	router   *gin.Engine
	resolved i18n.Locale
	isRTL    bool
	dir      string
}

func (s *LocaleMiddlewareSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.LocaleMiddleware())
	s.router.GET("/echo", func(c *gin.Context) {
		s.resolved = middleware.GetLocale(c)
		s.isRTL = c.GetBool("is_rtl")
		s.dir = c.GetString("direction")
		c.Status(http.StatusOK)
	})
}

func TestLocaleMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(LocaleMiddlewareSuite))
}

func (s *LocaleMiddlewareSuite) perform(decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *LocaleMiddlewareSuite) TestDefaultsToArabic() {
	rec := s.perform(nil)

	s.Equal(i18n.LocaleArabic, s.resolved)
	s.True(s.isRTL)
	s.Equal("rtl", s.dir)
	s.Equal("ar", rec.Header().Get("Content-Language"))
}

func (s *LocaleMiddlewareSuite) TestHeaderSelectsEnglish() {
	rec := s.perform(func(req *http.Request) {
		req.Header.Set("X-Locale", "en")
	})

	s.Equal(i18n.LocaleEnglish, s.resolved)
	s.False(s.isRTL)
	s.Equal("ltr", s.dir)
	s.Equal("en", rec.Header().Get("Content-Language"))
}

func (s *LocaleMiddlewareSuite) TestQueryOverridesHeader() {
	req := httptest.NewRequest(http.MethodGet, "/echo?lang=ar", nil)
	req.Header.Set("X-Locale", "en")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(i18n.LocaleArabic, s.resolved)
}

func (s *LocaleMiddlewareSuite) TestCookieUsedWhenHeaderAbsent() {
	s.perform(func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookie.LocaleCookieName, Value: "en"})
	})

	s.Equal(i18n.LocaleEnglish, s.resolved)
}

func (s *LocaleMiddlewareSuite) TestHeaderOverridesCookie() {
	s.perform(func(req *http.Request) {
		req.Header.Set("X-Locale", "ar")
		req.AddCookie(&http.Cookie{Name: cookie.LocaleCookieName, Value: "en"})
	})

	s.Equal(i18n.LocaleArabic, s.resolved)
}

func (s *LocaleMiddlewareSuite) TestAcceptLanguageFallback() {
	s.perform(func(req *http.Request) {
		req.Header.Set("Accept-Language", "fr-FR,en-US;q=0.8,ar;q=0.5")
	})

	s.Equal(i18n.LocaleEnglish, s.resolved, "first supported language wins")
}

func (s *LocaleMiddlewareSuite) TestUnsupportedValuesFallBack() {
	s.perform(func(req *http.Request) {
		req.Header.Set("X-Locale", "fr")
	})

	s.Equal(i18n.LocaleArabic, s.resolved)
}
