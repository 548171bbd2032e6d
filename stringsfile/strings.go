// Package stringsfile implements reading of Apple-style .strings
// translation tables.
//
// Format: one `"key" = "value";` pair per line. Lines starting with "/*"
// are comments, blank lines are allowed, and anything else is kept as an
// opaque line. No escape processing is done: the key ends at the first
// `" = "` delimiter and the value runs up to the trailing `";`.
//
// File naming convention: each language lives in its own file, usually
// inside an .lproj bundle directory:
//
//	Resources/en.lproj/Localizable.strings  (base)
//	Resources/fr.lproj/Localizable.strings  (translation)
//
// A Table is only a lookup structure. The order of lines in a rewritten
// file always comes from re-reading the base file's line stream.
package stringsfile

import (
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Line model
// ---------------------------------------------------------------------------

// Kind classifies a single line of a .strings file.
type Kind int

const (
	KindBlank   Kind = iota // empty / whitespace-only line
	KindComment             // starts with "/*"
	KindData                // "key" = "value";
	KindOther               // anything else, kept verbatim
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindData:
		return "data"
	default:
		return "other"
	}
}

const (
	commentPrefix = "/*"
	delimiter     = `" = "`
	dataSuffix    = `";`
	// minDataLen is the length of the shortest data line: "" = "";
	minDataLen = len(`"`) + len(delimiter) + len(dataSuffix)
)

// Line is a classified line. Key and Value are only set for KindData.
type Line struct {
	Kind  Kind
	Key   string
	Value string
	Text  string
}

// Classify determines the kind of a line. text must not include the line
// terminator. It never fails: malformed data lines are KindOther.
func Classify(text string) Line {
	switch {
	case strings.TrimSpace(text) == "":
		return Line{Kind: KindBlank, Text: text}
	case strings.HasPrefix(text, commentPrefix):
		return Line{Kind: KindComment, Text: text}
	}

	if len(text) >= minDataLen && text[0] == '"' && strings.HasSuffix(text, dataSuffix) {
		inner := text[1 : len(text)-len(dataSuffix)]
		if i := strings.Index(inner, delimiter); i >= 0 {
			return Line{
				Kind:  KindData,
				Key:   inner[:i],
				Value: inner[i+len(delimiter):],
				Text:  text,
			}
		}
	}
	return Line{Kind: KindOther, Text: text}
}

// FormatData renders a data line without terminator.
func FormatData(key, value string) string {
	return `"` + key + delimiter + value + dataSuffix
}

// RawLine is a decoded line together with its original terminator
// ("\n", "\r\n", or "" for an unterminated last line).
type RawLine struct {
	Text string
	EOL  string
}

// SplitLines splits decoded text into lines, keeping terminators so the
// text can be reproduced exactly by concatenating Text+EOL.
func SplitLines(text string) []RawLine {
	var lines []RawLine
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, RawLine{Text: text})
			break
		}
		ln := RawLine{Text: text[:i], EOL: "\n"}
		if strings.HasSuffix(ln.Text, "\r") {
			ln.Text = ln.Text[:len(ln.Text)-1]
			ln.EOL = "\r\n"
		}
		lines = append(lines, ln)
		text = text[i+1:]
	}
	return lines
}

// ReadLines reads and decodes path and returns its line stream.
func ReadLines(path string, enc Encoding) ([]RawLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text, err := enc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s as %s: %w", path, enc, err)
	}
	return SplitLines(text), nil
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

// Table maps keys to values for one translation file. It is filled once
// by Load or Parse and only read afterwards.
type Table struct {
	// Path is the backing file.
	Path string

	entries map[string]string
	order   []string
}

// NewTable returns an empty table for path, used when a translation file
// does not exist yet.
func NewTable(path string) *Table {
	return &Table{Path: path, entries: make(map[string]string)}
}

// Load reads, decodes and parses a .strings file from disk.
func Load(path string, enc Encoding) (*Table, error) {
	lines, err := ReadLines(path, enc)
	if err != nil {
		return nil, err
	}
	return fromLines(path, lines), nil
}

// Parse builds a table from already decoded text.
func Parse(path, text string) *Table {
	return fromLines(path, SplitLines(text))
}

func fromLines(path string, lines []RawLine) *Table {
	t := NewTable(path)
	for _, raw := range lines {
		ln := Classify(raw.Text)
		if ln.Kind != KindData {
			continue
		}
		if _, exists := t.entries[ln.Key]; !exists {
			t.order = append(t.order, ln.Key)
		}
		// Duplicate key: the later value wins.
		t.entries[ln.Key] = ln.Value
	}
	return t
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Get returns the value for key and whether it was found.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns all keys in the order they first appear in the file.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.order))
	copy(keys, t.order)
	return keys
}
