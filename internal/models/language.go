package models

import (
	"fmt"
	"strings"
)

// Language selects the output language of the archive.
type Language string

const (
	LangFR Language = "fr"
	LangEN Language = "en"

	DefaultLanguage = LangFR
)

// ParseLanguage accepts "fr" or "en" in any case; empty input yields the default.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultLanguage, nil
	case LangFR:
		return LangFR, nil
	case LangEN:
		return LangEN, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// FrenchName is the language name as written in French-language prompts.
func (l Language) FrenchName() string {
	if l == LangFR {
		return "Français"
	}
	return "Anglais"
}

// EnglishName is the language name as written in English-language prompts.
func (l Language) EnglishName() string {
	if l == LangFR {
		return "French"
	}
	return "English"
}

// Pick returns fr or en depending on the language.
func (l Language) Pick(fr, en string) string {
	if l == LangEN {
		return en
	}
	return fr
}
