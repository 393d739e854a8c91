// internal/app/system/notify/catalog.go
package notify

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/dalemusser/stratalaw/internal/domain/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// catalogs is the parsed and validated message set, keyed by language code.
var catalogs = mustLoad(localeFS)

// messages holds the registered catalog used by every Printer.
var messages = mustBuild(catalogs)

func mustLoad(fsys fs.FS) map[string]map[string]string {
	c, err := loadCatalogs(fsys)
	if err != nil {
		panic(err)
	}
	return c
}

func mustBuild(c map[string]map[string]string) *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		tag := language.MustParse(code)
		for key, msg := range c[code] {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Errorf("register %s/%s: %w", code, key, err))
			}
		}
	}
	return b
}

// loadCatalogs reads locales/<code>.yaml for every site language and checks
// that each one defines exactly the keys of the English catalog.
func loadCatalogs(fsys fs.FS) (map[string]map[string]string, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}

	out := make(map[string]map[string]string, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		code := strings.TrimSuffix(path.Base(p), ".yaml")
		if strings.TrimSpace(f.Locale) != code {
			return nil, fmt.Errorf("catalog %s: locale %q must match file name", p, f.Locale)
		}
		if !models.IsSupportedLang(code) {
			return nil, fmt.Errorf("catalog %s: unsupported locale %q", p, code)
		}
		if len(f.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: messages map is required", p)
		}
		out[code] = f.Messages
	}

	base, ok := out[models.DefaultLang]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", models.DefaultLang)
	}
	for _, code := range models.SupportedLangCodes() {
		msgs, ok := out[code]
		if !ok {
			return nil, fmt.Errorf("locale %s has no catalog", code)
		}
		for key := range base {
			if strings.TrimSpace(msgs[key]) == "" {
				return nil, fmt.Errorf("catalog %s: missing key %q", code, key)
			}
		}
	}
	return out, nil
}

// Printer returns a message printer for a site language code.
// Unknown codes print English.
func Printer(lang string) *message.Printer {
	tag := language.MustParse(models.NormalizeLang(lang))
	return message.NewPrinter(tag, message.Catalog(messages))
}
