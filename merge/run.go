package merge

import (
	"fmt"

	"github.com/minios-linux/stringsync/stringsfile"
)

// Summary collects the results of one run over several targets.
type Summary struct {
	Base    string
	Results []*Result
}

// Changed returns how many targets differ (or differed) from the base layout.
func (s *Summary) Changed() int {
	n := 0
	for _, r := range s.Results {
		if r.Changed {
			n++
		}
	}
	return n
}

// Run reads the base file once and updates every target in order.
//
// An unreadable base is always fatal. An unreadable target is fatal with
// StrictSource and treated as empty otherwise. The first write error stops
// the run; targets processed before it keep their new content and are
// included in the returned summary.
func Run(basePath string, targets []string, opts Options) (*Summary, error) {
	base, err := stringsfile.ReadLines(basePath, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}

	sum := &Summary{Base: basePath}
	for _, path := range targets {
		target, loadErr := stringsfile.Load(path, opts.Encoding)
		if loadErr != nil {
			if opts.StrictSource {
				return sum, fmt.Errorf("%w: %w", ErrSourceRead, loadErr)
			}
			target = stringsfile.NewTable(path)
		}

		res, err := apply(target, base, opts)
		if err != nil {
			return sum, err
		}
		if loadErr != nil {
			res.Missing = true
			res.LoadErr = loadErr
		}

		sum.Results = append(sum.Results, res)
		if opts.OnTarget != nil {
			opts.OnTarget(res)
		}
	}
	return sum, nil
}
