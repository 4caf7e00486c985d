package i18n

import (
	"embed"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	//go:embed *.toml
	f embed.FS
)

type Localizer struct {
	bundle   *i18n.Bundle
	registry map[string]*i18n.Localizer
}

func NewLocalizer(languages ...string) Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range languages {
		path := lang + ".toml"
		if _, err := bundle.LoadMessageFileFS(f, path); err != nil {
			slog.Error("Failed to load i18n message config", slog.String("error", err.Error()), slog.String("lang", lang), slog.String("file", path))
		}
	}

	l := Localizer{
		bundle:   bundle,
		registry: make(map[string]*i18n.Localizer),
	}
	for _, lang := range languages {
		l.registry[lang] = i18n.NewLocalizer(l.bundle, lang)
	}
	return l
}

// NewDefaultLocalizer loads every allowed language.
func NewDefaultLocalizer() Localizer {
	langs := make([]string, 0, len(ALLOW_LANG))
	for k := range ALLOW_LANG {
		langs = append(langs, k)
	}
	return NewLocalizer(langs...)
}

func (l Localizer) Get(lang string, id string) string {
	return l.GetWithData(lang, id, nil)
}

func (l Localizer) GetWithData(lang, id string, data map[string]any) string {
	localizer := l.registry[lang]
	if localizer == nil {
		return id
	}
	cfg := &i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID:    id,
			Other: id,
		},
		TemplateData: data,
	}
	str, err := localizer.Localize(cfg)
	if err != nil {
		slog.Info("failed to get localizer message", slog.String("id", id), slog.String("error", err.Error()))
		return id
	}

	return str
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.SimplifiedChinese})

// MatchLang picks the best allowed language for an Accept-Language header.
func MatchLang(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DEFAULT_LANG
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DEFAULT_LANG
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DEFAULT_LANG
	}
	if idx == 1 {
		return "zh-CN"
	}
	return DEFAULT_LANG
}
