// Package langmeta resolves display metadata (native and English names,
// emoji flag) for the locale a translation file belongs to.
package langmeta

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Code    string
	Tag     language.Tag
	Name    string // in the language itself
	English string
	Flag    string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns metadata for a locale code such as "fr", "pt_BR" or
// "zh-Hans". It reports false for codes that are not valid BCP 47 tags
// and for Xcode's "Base" pseudo-locale.
func Resolve(code string) (Meta, bool) {
	code = canonicalize(code)
	if code == "" || code == "base" {
		return Meta{}, false
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return Meta{}, false
	}

	m := Meta{
		Code:    code,
		Tag:     tag,
		Name:    display.Self.Name(tag),
		English: display.English.Tags().Name(tag),
	}
	if m.Name == "" {
		m.Name = code
	}
	if region, conf := tag.Region(); conf == language.Exact {
		m.Flag = flagFromRegion(region.String())
	}
	return m, true
}

// FromPath finds the locale of a translation file from its path:
// an enclosing "<code>.lproj" directory, else the file name itself
// ("de.strings", "Localizable-pt_BR.strings").
func FromPath(path string) (Meta, bool) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if base := filepath.Base(dir); strings.HasSuffix(base, ".lproj") {
			return Resolve(strings.TrimSuffix(base, ".lproj"))
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m, ok := Resolve(stem); ok {
		return m, true
	}
	for i, r := range stem {
		if r == '-' || r == '_' || r == '.' {
			if m, ok := Resolve(stem[i+1:]); ok {
				return m, true
			}
		}
	}
	return Meta{}, false
}

// flagFromRegion converts a two-letter region code to its emoji flag.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + r - 'A')
	}
	return b.String()
}
