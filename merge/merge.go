// Package merge brings translation files in line with a base file.
//
// The base file is the template: every line of the output comes from the
// base, in base order. Data lines keep the target's existing value for the
// key when there is one, otherwise the base value is used so the file stays
// complete. Keys only present in the target are dropped.
package merge

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/minios-linux/stringsync/stringsfile"
)

var (
	// ErrSourceRead marks a base or target file that could not be read.
	ErrSourceRead = errors.New("source read error")
	// ErrWrite marks a target file that could not be written.
	ErrWrite = errors.New("write error")
)

// Options selects the merge policy.
type Options struct {
	// Encoding of both base and target files.
	Encoding stringsfile.Encoding
	// StripComments drops comment and blank lines of the base instead of
	// copying them to the output.
	StripComments bool
	// StrictSource makes an unreadable target file fatal. Otherwise the
	// target is treated as having no translations.
	StrictSource bool
	// DryRun renders and compares but never writes.
	DryRun bool
	// OnTarget is called after each target has been processed.
	OnTarget func(*Result)
}

// Result describes what happened to one target.
type Result struct {
	Path string
	// Missing is set when the target could not be loaded and was treated
	// as empty; LoadErr holds the reason.
	Missing bool
	LoadErr error

	// Kept lists base keys that kept the target's translation.
	Kept []string
	// Fallback lists base keys that got the base value.
	Fallback []string
	// Dropped lists target keys that are no longer in the base.
	Dropped []string
	// Suppressed counts comment/blank lines left out by StripComments.
	Suppressed int
	// BaseValues maps every base key to the base value it was synced against.
	BaseValues map[string]string

	// Changed is set when the output differs from the file on disk.
	Changed bool
	// Written is set when the file was actually replaced.
	Written bool
}

// Render merges target into the base line stream and returns the new file
// text. It does no I/O.
func Render(base []stringsfile.RawLine, target *stringsfile.Table, opts Options) (string, *Result) {
	res := &Result{
		Path:       target.Path,
		BaseValues: make(map[string]string),
	}

	var b strings.Builder
	for _, raw := range base {
		ln := stringsfile.Classify(raw.Text)
		switch ln.Kind {
		case stringsfile.KindBlank, stringsfile.KindComment:
			if opts.StripComments {
				res.Suppressed++
				continue
			}
			b.WriteString(raw.Text)
			b.WriteString(raw.EOL)

		case stringsfile.KindOther:
			b.WriteString(raw.Text)
			b.WriteString(raw.EOL)

		case stringsfile.KindData:
			value, ok := target.Get(ln.Key)
			if _, seen := res.BaseValues[ln.Key]; !seen {
				if ok {
					res.Kept = append(res.Kept, ln.Key)
				} else {
					res.Fallback = append(res.Fallback, ln.Key)
				}
			}
			if !ok {
				value = ln.Value
			}
			res.BaseValues[ln.Key] = ln.Value

			eol := raw.EOL
			if eol == "" {
				eol = "\n"
			}
			b.WriteString(stringsfile.FormatData(ln.Key, value))
			b.WriteString(eol)
		}
	}

	for _, k := range target.Keys() {
		if _, ok := res.BaseValues[k]; !ok {
			res.Dropped = append(res.Dropped, k)
		}
	}

	return b.String(), res
}

// Update rewrites target.Path from the base file at basePath, keeping the
// translations already in target.
func Update(target *stringsfile.Table, basePath string, opts Options) (*Result, error) {
	base, err := stringsfile.ReadLines(basePath, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	return apply(target, base, opts)
}

func apply(target *stringsfile.Table, base []stringsfile.RawLine, opts Options) (*Result, error) {
	text, res := Render(base, target, opts)

	data, err := opts.Encoding.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %w", ErrWrite, target.Path, err)
	}

	prev, err := os.ReadFile(target.Path)
	res.Changed = err != nil || !bytes.Equal(prev, data)
	if opts.DryRun || !res.Changed {
		return res, nil
	}

	if err := writeFileAtomic(target.Path, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	res.Written = true
	return res, nil
}
