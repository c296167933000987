package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"

	lserrors "langsite/internal/errors"
)

// Language represents a supported UI language.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageRomanian Language = "ro"
)

// DefaultLanguage is the baseline language used when nothing else applies.
const DefaultLanguage = LanguageEnglish

//go:embed locales/*.json
var embeddedLocales embed.FS

// Table is the immutable translation table of one language, flattened to dotted keys.
type Table struct {
	language Language
	entries  map[string]string
}

// Language returns the language the table belongs to.
func (t Table) Language() Language {
	return t.language
}

// Lookup returns the string stored under a dotted key such as "auth.validation.emailRequired".
func (t Table) Lookup(key string) (string, bool) {
	value, ok := t.entries[key]
	return value, ok
}

// T returns the translation for key, or the key itself when it is missing.
func (t Table) T(key string) string {
	if value, ok := t.entries[key]; ok {
		return value
	}
	return key
}

// Format translates key and replaces {{name}} placeholders with the given pairs.
func (t Table) Format(key string, pairs ...string) string {
	value := t.T(key)
	for i := 0; i+1 < len(pairs); i += 2 {
		value = strings.ReplaceAll(value, "{{"+pairs[i]+"}}", pairs[i+1])
	}
	return value
}

// Entries returns a copy of every key of the table.
func (t Table) Entries() map[string]string {
	out := make(map[string]string, len(t.entries))
	for key, value := range t.entries {
		out[key] = value
	}
	return out
}

// Len reports how many keys the table holds.
func (t Table) Len() int {
	return len(t.entries)
}

// Response is the payload returned by the /api/i18n endpoint.
type Response struct {
	Language Language          `json:"language"`
	Messages map[string]string `json:"messages"`
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Code     Language
	LabelKey string
	Active   bool
}

// Catalog holds the translation tables of every supported language.
type Catalog struct {
	tables     map[Language]Table
	supported  []Language
	defaultLng Language
	matcher    language.Matcher
	matchOrder []Language
}

// Load builds the catalog from the embedded locale files.
func Load(defaultLanguage Language) (*Catalog, error) {
	return LoadFromFS(embeddedLocales, defaultLanguage)
}

// LoadFromFS builds a catalog from locales/<code>.json files of fsys.
func LoadFromFS(fsys fs.FS, defaultLanguage Language) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	if len(paths) == 0 {
		return nil, lserrors.ErrNoLanguages
	}
	sort.Strings(paths)

	catalog := &Catalog{tables: make(map[Language]Table, len(paths))}
	for _, p := range paths {
		code := strings.TrimSuffix(path.Base(p), ".json")
		if _, parseErr := language.Parse(code); parseErr != nil {
			return nil, fmt.Errorf("locale file %s: %w", p, parseErr)
		}
		data, readErr := fs.ReadFile(fsys, p)
		if readErr != nil {
			return nil, fmt.Errorf("read locale file %s: %w", p, readErr)
		}
		entries, parseErr := parseTable(data)
		if parseErr != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", p, parseErr)
		}
		lang := Language(code)
		catalog.tables[lang] = Table{language: lang, entries: entries}
		catalog.supported = append(catalog.supported, lang)
	}

	if _, ok := catalog.tables[defaultLanguage]; !ok {
		return nil, fmt.Errorf("%w: %q", lserrors.ErrInvalidDefaultLanguage, defaultLanguage)
	}
	catalog.defaultLng = defaultLanguage

	// The matcher falls back to its first tag, so the default goes first.
	catalog.matchOrder = append(catalog.matchOrder, defaultLanguage)
	for _, lang := range catalog.supported {
		if lang != defaultLanguage {
			catalog.matchOrder = append(catalog.matchOrder, lang)
		}
	}
	tags := make([]language.Tag, 0, len(catalog.matchOrder))
	for _, lang := range catalog.matchOrder {
		tags = append(tags, language.Make(string(lang)))
	}
	catalog.matcher = language.NewMatcher(tags)
	return catalog, nil
}

func parseTable(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make(map[string]string)
	if err := flatten("", raw, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for key, value := range node {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		switch typed := value.(type) {
		case string:
			out[fullKey] = typed
		case map[string]any:
			if err := flatten(fullKey, typed, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: expected string or object, got %T", fullKey, value)
		}
	}
	return nil
}

// Default returns the baseline language of the catalog.
func (c *Catalog) Default() Language {
	return c.defaultLng
}

// Supported returns the supported languages in a stable order.
func (c *Catalog) Supported() []Language {
	out := make([]Language, len(c.supported))
	copy(out, c.supported)
	return out
}

// Parse reports whether code names a supported language. Codes are case-sensitive,
// matching the URL segment exactly.
func (c *Catalog) Parse(code string) (Language, bool) {
	lang := Language(code)
	if _, ok := c.tables[lang]; ok {
		return lang, true
	}
	return "", false
}

// Table returns the table for lang, falling back to the default language.
func (c *Catalog) Table(lang Language) Table {
	if table, ok := c.tables[lang]; ok {
		return table
	}
	return c.tables[c.defaultLng]
}

// FromAcceptLanguage picks the best supported language for an Accept-Language header.
// The bool is false when the header is empty, malformed or matches nothing.
func (c *Catalog) FromAcceptLanguage(headerValue string) (Language, bool) {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(headerValue)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return c.matchOrder[index], true
}

// Options returns the language switcher entries with the active one flagged.
func (c *Catalog) Options(active Language) []LanguageOption {
	options := make([]LanguageOption, 0, len(c.supported))
	for _, lang := range c.supported {
		options = append(options, LanguageOption{Code: lang, LabelKey: labelKey(lang), Active: lang == active})
	}
	return options
}

func labelKey(lang Language) string {
	switch lang {
	case LanguageEnglish:
		return "language.english"
	case LanguageRomanian:
		return "language.romanian"
	default:
		return "language." + string(lang)
	}
}
