package i18n

import "fmt"

// Locale is the request-scoped language preference. Arabic is the product
// default; anything outside the supported set falls back to it.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"

	DefaultLocale = LocaleArabic
)

func NewLocale(s string) Locale {
	switch Locale(s) {
	case LocaleArabic, LocaleEnglish:
		return Locale(s)
	default:
		return DefaultLocale
	}
}

func (l Locale) String() string {
	return string(l)
}

func (l Locale) IsRTL() bool {
	return l == LocaleArabic
}

func (l Locale) Direction() string {
	if l.IsRTL() {
		return "rtl"
	}
	return "ltr"
}

// Message is a bilingual string pair; Resolve picks the variant for a locale.
type Message struct {
	AR string
	EN string
}

func (m Message) Resolve(l Locale) string {
	if l == LocaleEnglish {
		return m.EN
	}
	return m.AR
}

// FormatRetryAfter renders a human-friendly wait duration: plain seconds
// under a minute, otherwise rounded-up minutes with locale-correct plurals.
func FormatRetryAfter(seconds int, l Locale) string {
	if seconds < 60 {
		if l == LocaleEnglish {
			if seconds == 1 {
				return "1 second"
			}
			return fmt.Sprintf("%d seconds", seconds)
		}
		switch {
		case seconds == 1:
			return "ثانية واحدة"
		case seconds == 2:
			return "ثانيتين"
		case seconds >= 3 && seconds <= 10:
			return fmt.Sprintf("%d ثوان", seconds)
		default:
			return fmt.Sprintf("%d ثانية", seconds)
		}
	}

	minutes := (seconds + 59) / 60
	if l == LocaleEnglish {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	switch {
	case minutes == 1:
		return "دقيقة واحدة"
	case minutes == 2:
		return "دقيقتين"
	case minutes >= 3 && minutes <= 10:
		return fmt.Sprintf("%d دقائق", minutes)
	default:
		return fmt.Sprintf("%d دقيقة", minutes)
	}
}
