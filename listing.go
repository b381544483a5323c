package flystorage

import (
	"iter"
	"sort"
	"sync/atomic"
	"unicode"
)

// DirectoryListing wraps the single-pass lazy sequence of entries produced
// by one List call. Filtering is lazy and composable; draining, sorting and
// iteration all consume the underlying sequence, and a listing can only be
// consumed once. Filtered views share the consumption state of the listing
// they derive from.
type DirectoryListing struct {
	seq      iter.Seq2[StatEntry, error]
	pred     func(StatEntry) bool
	consumed *atomic.Bool
}

// NewDirectoryListing wraps an adapter-produced sequence. Used by the
// FileStorage façade; adapter authors and tests may also construct listings
// directly.
func NewDirectoryListing(seq iter.Seq2[StatEntry, error]) *DirectoryListing {
	return &DirectoryListing{seq: seq, consumed: new(atomic.Bool)}
}

// Filter returns a lazy view restricted to entries satisfying pred. The
// underlying sequence is not evaluated until the view is consumed.
func (l *DirectoryListing) Filter(pred func(StatEntry) bool) *DirectoryListing {
	prev := l.pred
	combined := pred
	if prev != nil {
		combined = func(entry StatEntry) bool {
			return prev(entry) && pred(entry)
		}
	}
	return &DirectoryListing{seq: l.seq, pred: combined, consumed: l.consumed}
}

// All iterates the listing. A second consumption yields ErrListingConsumed.
func (l *DirectoryListing) All() iter.Seq2[StatEntry, error] {
	return func(yield func(StatEntry, error) bool) {
		if l.consumed.Swap(true) {
			yield(StatEntry{}, ErrListingConsumed)
			return
		}
		for entry, err := range l.seq {
			if err != nil {
				yield(StatEntry{}, err)
				return
			}
			if l.pred != nil && !l.pred(entry) {
				continue
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// ToSlice drains the listing and sorts the entries by path using locale
// aware natural order comparison (numeric substrings compare by value,
// case-insensitive).
func (l *DirectoryListing) ToSlice() ([]StatEntry, error) {
	entries, err := l.ToSliceUnsorted()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return NaturalLess(entries[i].Path, entries[j].Path)
	})
	return entries, nil
}

// ToSliceUnsorted drains the listing preserving the backend order.
func (l *DirectoryListing) ToSliceUnsorted() ([]StatEntry, error) {
	var entries []StatEntry
	for entry, err := range l.All() {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NaturalLess compares two paths in natural order: runs of digits compare
// by numeric value, everything else compares case-insensitively, and equal
// folded strings fall back to byte order for determinism.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			// Compare the whole digit runs numerically.
			si, sj := i, j
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := trimLeadingZeros(string(ra[si:i]))
			nb := trimLeadingZeros(string(rb[sj:j]))
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		fa, fb := unicode.ToLower(ca), unicode.ToLower(cb)
		if fa != fb {
			return fa < fb
		}
		i++
		j++
	}
	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	return a < b
}

func trimLeadingZeros(s string) string {
	k := 0
	for k < len(s)-1 && s[k] == '0' {
		k++
	}
	return s[k:]
}
