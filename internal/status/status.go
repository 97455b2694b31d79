package status

import (
	"sort"
	"strings"
)

// Kind is a verification status attached to balloons and comparison items.
type Kind string

const (
	Pass      Kind = "pass"
	Fail      Kind = "fail"
	Warning   Kind = "warning"
	Deviation Kind = "deviation"
	Missing   Kind = "missing"
	NotFound  Kind = "not_found"
	Pending   Kind = "pending"
)

// All lists every known kind from most to least severe.
var All = []Kind{Fail, Missing, Warning, Deviation, NotFound, Pending, Pass}

var severity = map[Kind]int{
	Fail:      6,
	Missing:   5,
	Warning:   4,
	Deviation: 3,
	NotFound:  2,
	Pending:   1,
	Pass:      0,
}

// Parse normalizes a raw status string. Unknown values are preserved as-is
// (lowercased) so callers can still report them; use Valid to check.
func Parse(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return Pending
	}
	return k
}

// Valid reports whether k is one of the closed set of kinds.
func (k Kind) Valid() bool {
	_, ok := severity[k]
	return ok
}

// Severity returns the display rank of k. Higher is more severe.
// Unknown kinds rank below pass.
func (k Kind) Severity() int {
	if s, ok := severity[k]; ok {
		return s
	}
	return -1
}

// Flagged reports whether k needs attention: fail, warning, missing or
// deviation. Keyboard navigation cycles through flagged items only.
func (k Kind) Flagged() bool {
	switch k {
	case Fail, Warning, Missing, Deviation:
		return true
	}
	return false
}

// Label returns the short upper-case display label for k.
func (k Kind) Label() string {
	return StyleOf(k).Label
}

func (k Kind) String() string { return string(k) }

// MoreSevere reports whether a ranks strictly above b.
func MoreSevere(a, b Kind) bool {
	return a.Severity() > b.Severity()
}

// SortBySeverity orders kinds from most to least severe. The sort is stable
// so equal kinds keep their input order.
func SortBySeverity(kinds []Kind) {
	sort.SliceStable(kinds, func(i, j int) bool {
		return MoreSevere(kinds[i], kinds[j])
	})
}

// Summary aggregates the statuses of one comparison run.
type Summary struct {
	Total   int          `json:"total"`
	Matched int          `json:"matched"`
	Flagged int          `json:"flagged"`
	Worst   Kind         `json:"worst"`
	Counts  map[Kind]int `json:"counts"`
}

// Summarize counts kinds. Matched is every item the check drawing could be
// paired with, i.e. everything except not_found.
func Summarize(kinds []Kind) Summary {
	s := Summary{
		Total:  len(kinds),
		Worst:  Pass,
		Counts: make(map[Kind]int, len(All)),
	}
	for _, k := range All {
		s.Counts[k] = 0
	}
	for _, k := range kinds {
		s.Counts[k]++
		if k != NotFound {
			s.Matched++
		}
		if k.Flagged() {
			s.Flagged++
		}
		if MoreSevere(k, s.Worst) {
			s.Worst = k
		}
	}
	return s
}

// UnmarshalText normalizes decoded status strings through Parse.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = Parse(string(b))
	return nil
}
