package models

import "strings"

type TranslationMethod string

const (
	MethodGoogle TranslationMethod = "google"
	MethodNLLB   TranslationMethod = "nllb"
)

func (m TranslationMethod) Valid() bool {
	return m == MethodGoogle || m == MethodNLLB
}

// NLLBLanguageCodes maps the short codes accepted by the API to NLLB-200 codes.
var NLLBLanguageCodes = map[string]string{
	"ta": "tam_Taml",
	"hi": "hin_Deva",
	"bn": "ben_Beng",
	"te": "tel_Telu",
	"ml": "mal_Mlym",
	"mr": "mar_Deva",
	"gu": "guj_Gujr",
	"pa": "pan_Guru",
	"kn": "kan_Knda",
	"en": "eng_Latn",
}

// LanguageNames are the target languages offered to users.
var LanguageNames = map[string]string{
	"hi": "Hindi",
	"ta": "Tamil",
	"te": "Telugu",
	"gu": "Gujarati",
	"bn": "Bengali",
	"mr": "Marathi",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
	"en": "English",
}

// NormalizeLanguage lowercases a short language code ("HI" -> "hi").
func NormalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
