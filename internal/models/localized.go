package models

import (
	"bytes"
	"encoding/json"
)

// Language is a supported content language.
type Language string

const (
	LangEN Language = "en"
	LangAR Language = "ar"
)

// Languages lists every supported language, English first.
var Languages = []Language{LangEN, LangAR}

func (l Language) Valid() bool {
	return l == LangEN || l == LangAR
}

// LocalizedText is a language-keyed piece of user content. It is stored as
// one column per language (prefix_en, prefix_ar) and serialized as
// {"en": "...", "ar": "..."}.
type LocalizedText struct {
	En string `gorm:"column:en;type:text" json:"en"`
	Ar string `gorm:"column:ar;type:text" json:"ar"`
}

// UnmarshalJSON accepts either a language object or a bare string, which is
// taken as English.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LocalizedText{En: s}
		return nil
	}
	var m struct {
		En string `json:"en"`
		Ar string `json:"ar"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = LocalizedText{En: m.En, Ar: m.Ar}
	return nil
}

// Text builds a LocalizedText from a language map.
func Text(m map[Language]string) LocalizedText {
	var t LocalizedText
	for lang, v := range m {
		t.Set(lang, v)
	}
	return t
}

// Get returns the text in lang, falling back to English.
func (t LocalizedText) Get(lang Language) string {
	if lang == LangAR && t.Ar != "" {
		return t.Ar
	}
	return t.En
}

// Has reports whether text for lang is present.
func (t LocalizedText) Has(lang Language) bool {
	switch lang {
	case LangEN:
		return t.En != ""
	case LangAR:
		return t.Ar != ""
	}
	return false
}

func (t *LocalizedText) Set(lang Language, v string) {
	switch lang {
	case LangEN:
		t.En = v
	case LangAR:
		t.Ar = v
	}
}

// Map returns the non-empty translations keyed by language.
func (t LocalizedText) Map() map[Language]string {
	m := make(map[Language]string, len(Languages))
	for _, lang := range Languages {
		if t.Has(lang) {
			m[lang] = t.Get(lang)
		}
	}
	return m
}

func (t LocalizedText) IsZero() bool {
	return t.En == "" && t.Ar == ""
}

// Source returns the first present language and its text, used as the
// origin when filling in a missing translation.
func (t LocalizedText) Source() (Language, string, bool) {
	for _, lang := range Languages {
		if t.Has(lang) {
			return lang, t.Get(lang), true
		}
	}
	return "", "", false
}

// Merge overwrites the languages present in other.
func (t *LocalizedText) Merge(other LocalizedText) {
	for lang, v := range other.Map() {
		t.Set(lang, v)
	}
}

// Translatable is implemented by entities carrying localized content, so
// translation runs uniformly over every entity type.
type Translatable interface {
	LocalizedFields() []*LocalizedText
}
