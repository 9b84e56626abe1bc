// Package i18n holds the embedded gettext catalogs for the UI strings.
package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// DefaultLanguage is used for unknown locales and missing translations
const DefaultLanguage = "en"

//go:embed locales/*.po
var locales embed.FS

// Catalog translates message ids for one language
type Catalog struct {
	lang     string
	po       *gotext.Po
	fallback *gotext.Po
}

// Languages lists the embedded catalogs
func Languages() []string {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return []string{DefaultLanguage}
	}
	var langs []string
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".po"))
	}
	sort.Strings(langs)
	return langs
}

func load(lang string) (*gotext.Po, bool) {
	data, err := locales.ReadFile("locales/" + lang + ".po")
	if err != nil {
		return nil, false
	}
	po := gotext.NewPo()
	po.Parse(data)
	return po, true
}

// normalize turns "fr_FR.UTF-8" or "es-MX" into "fr" / "es"
func normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(l, "_-."); i >= 0 {
		l = l[:i]
	}
	return l
}

// New returns the catalog for locale, falling back to English
func New(locale string) *Catalog {
	fallback, _ := load(DefaultLanguage)
	lang := normalize(locale)
	po, ok := load(lang)
	if !ok {
		lang, po = DefaultLanguage, fallback
	}
	return &Catalog{lang: lang, po: po, fallback: fallback}
}

func (c *Catalog) Lang() string {
	return c.lang
}

// Get translates msgid and formats it with args. Ids missing from the
// catalog fall back to English, then to the id itself.
func (c *Catalog) Get(msgid string, args ...any) string {
	s := c.po.Get(msgid)
	if s == msgid && c.fallback != nil {
		s = c.fallback.Get(msgid)
	}
	if len(args) == 0 {
		return s
	}
	return fmt.Sprintf(s, args...)
}
