package localization

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

type contextKey string

func (c contextKey) String() string {
	return "lingo/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

//go:embed messages/*.toml
var defaultMessages embed.FS

// DefaultLanguages are the message files shipped with the module.
var DefaultLanguages = []string{"en", "sw"} //nolint:gochecknoglobals // read-only

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

func ToMap(m map[string]string, lang []string) map[string]string {
	m["lang"] = strings.Join(lang, ",")
	return m
}

func FromMap(m map[string]string) []string {
	lang, ok := m["lang"]
	if !ok {
		return nil
	}
	return strings.Split(lang, ",")
}

type Manager interface {
	Bundle() *i18n.Bundle
	Translate(ctx context.Context, request any, messageID string) string
	TranslateWithMap(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
	) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// NewManager loads messages.<lang>.toml for every language from translationsFolder.
func NewManager(translationsFolder string, languages ...string) Manager {
	if translationsFolder == "" {
		translationsFolder = "localization"
	}

	bundle := newBundle()
	for _, lang := range languages {
		bundle.MustLoadMessageFile(fmt.Sprintf("%s/messages.%v.toml", translationsFolder, lang))
	}

	return &managerImpl{bundle: bundle}
}

// NewDefaultManager uses the message files embedded in the module.
func NewDefaultManager() (Manager, error) {
	bundle := newBundle()
	for _, lang := range DefaultLanguages {
		_, err := bundle.LoadMessageFileFS(defaultMessages, path.Join("messages", "messages."+lang+".toml"))
		if err != nil {
			return nil, fmt.Errorf("could not load %s messages: %w", lang, err)
		}
	}

	return &managerImpl{bundle: bundle}, nil
}

func newBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return bundle
}

// Bundle Access the translation bundle instatiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.TranslateWithMapAndCount(ctx, request, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)

	case context.Context:
		languageSlice = FromContext(v)

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("TranslateWithMapAndCount -- no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
		TemplateData:   variables,
		PluralCount:    count,
	})

	if err != nil {
		logger := util.Log(ctx).WithError(err)
		logger.Error(" TranslateWithMapAndCount -- could not perform translation")
	}

	return transVersion
}

// ExtractLanguageFromHTTPRequest lists the lang query parameter, then the Accept-Language entries.
// The body is never read.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.URL.Query().Get("lang")

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

func ExtractLanguageFromHTTPHeader(req http.Header) []string {
	acceptLanguageHeader := req.Get("Accept-Language")
	if acceptLanguageHeader == "" {
		return nil
	}
	return strings.Split(acceptLanguageHeader, ",")
}

// PreferredLocale picks the highest weighted parseable entry of langs.
// Entries may carry Accept-Language weights ("fr-CH;q=0.9"); ties keep their order.
// The returned identifier is the entry as written, without its weight.
func PreferredLocale(langs []string) (string, bool) {
	type candidate struct {
		locale string
		weight float64
	}

	var candidates []candidate
	for _, entry := range langs {
		tagPart, params, _ := strings.Cut(entry, ";")
		tagPart = strings.TrimSpace(tagPart)
		if tagPart == "" || tagPart == "*" {
			continue
		}
		if _, err := language.Parse(tagPart); err != nil {
			continue
		}

		weight := 1.0
		if q, found := strings.CutPrefix(strings.TrimSpace(params), "q="); found {
			parsed, err := strconv.ParseFloat(q, 64)
			if err != nil {
				continue
			}
			weight = parsed
		}
		if weight <= 0 {
			continue
		}

		candidates = append(candidates, candidate{locale: tagPart, weight: weight})
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].weight > candidates[j].weight })
	return candidates[0].locale, true
}
