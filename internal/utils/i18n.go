package utils

// Server-side strings are limited to what the API itself says; dashboard
// copy lives in the frontend.

const DefaultLocale = "en"

var SupportedLocales = []string{"en", "zh", "ms"}

var translations = map[string]map[string]string{
	"en": {
		"health.ok":        "ok",
		"error.superseded": "a newer request replaced this one",
		"error.internal":   "internal error",
		"speech.voice":     "en-US-Neural2-F",
	},
	"zh": {
		"health.ok":        "好的",
		"error.superseded": "该请求已被更新的请求取代",
		"error.internal":   "服务器内部错误",
		"speech.voice":     "cmn-CN-Wavenet-A",
	},
	"ms": {
		"health.ok":        "ok",
		"error.superseded": "permintaan ini telah digantikan oleh permintaan yang lebih baharu",
		"error.internal":   "ralat dalaman",
		"speech.voice":     "ms-MY-Wavenet-A",
	},
}

// T returns the translated string for key in locale; falls back to English,
// then to the key itself.
func T(locale, key string) string {
	if v, ok := translations[locale][key]; ok {
		return v
	}
	if v, ok := translations[DefaultLocale][key]; ok {
		return v
	}
	return key
}
