// Package correlate links review findings back to comparison items.
//
// Findings produced by the review pass carry a free-text location and a
// value but no coordinate and no balloon reference. Match recovers the most
// likely balloon by scoring every comparison item against the finding and
// accepting the best one only above a confidence floor. Scoring is pure and
// deterministic, so a finding always resolves to the same balloon for the
// same item list.
package correlate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/drawing-inspector/internal/model"
)

// Score weights and thresholds.
const (
	PointsNominalExact = 10
	PointsNominalNear  = 5
	PointsCheckActual  = 8
	PointsStringEqual  = 10
	PointsToken        = 2

	// Floor is the minimum winning score for a match.
	Floor = 5

	ExactDelta = 0.01
	NearDelta  = 1.0

	minTokenRunes = 3
)

// Rule names a scoring rule in an explanation.
type Rule string

const (
	RuleNominalExact Rule = "nominal_exact"
	RuleNominalNear  Rule = "nominal_near"
	RuleCheckActual  Rule = "check_actual"
	RuleStringEqual  Rule = "string_equal"
	RuleDescription  Rule = "description_token"
	RuleZone         Rule = "zone_token"
)

// Contribution is one rule that added points to an item's score.
type Contribution struct {
	Rule   Rule   `json:"rule"`
	Points int    `json:"points"`
	Detail string `json:"detail,omitempty"`
}

// Score is the total for one comparison item.
type Score struct {
	BalloonNumber int            `json:"balloon_number"`
	Total         int            `json:"total"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

var tokenSplit = regexp.MustCompile(`[\s\-/—]+`)

// Tokens splits a finding location into lower-cased search tokens. Only
// tokens of three or more characters are kept.
func Tokens(location string) []string {
	var out []string
	for _, tok := range tokenSplit.Split(strings.ToLower(location), -1) {
		if utf8.RuneCountInString(tok) >= minTokenRunes {
			out = append(out, tok)
		}
	}
	return out
}

// ScoreItem scores one comparison item against a finding.
func ScoreItem(f model.Finding, cat model.Category, item model.ComparisonItem) Score {
	s := Score{BalloonNumber: item.BalloonNumber}
	add := func(r Rule, pts int, detail string) {
		s.Total += pts
		s.Contributions = append(s.Contributions, Contribution{Rule: r, Points: pts, Detail: detail})
	}

	search := f.SearchValue(cat)
	if sv, ok := search.Float(); ok && item.MasterNominal != nil {
		d := math.Abs(sv - *item.MasterNominal)
		switch {
		case d < ExactDelta:
			add(RuleNominalExact, PointsNominalExact, fmt.Sprintf("|%s - %s| < %g", model.FormatNumber(sv), model.FormatNumber(*item.MasterNominal), ExactDelta))
		case d < NearDelta:
			add(RuleNominalNear, PointsNominalNear, fmt.Sprintf("|%s - %s| < %g", model.FormatNumber(sv), model.FormatNumber(*item.MasterNominal), NearDelta))
		}
	}

	if cat == model.CategoryModified && item.CheckActual != nil {
		if cv, ok := f.CheckValue.Float(); ok && math.Abs(cv-*item.CheckActual) < ExactDelta {
			add(RuleCheckActual, PointsCheckActual, fmt.Sprintf("check %s ~ %s", model.FormatNumber(cv), model.FormatNumber(*item.CheckActual)))
		}
	}

	if item.MasterNominal != nil && search.String() == model.FormatNumber(*item.MasterNominal) {
		add(RuleStringEqual, PointsStringEqual, search.String())
	}

	desc := strings.ToLower(item.FeatureDescription)
	zone := strings.ToLower(item.Zone)
	for _, tok := range Tokens(f.Location) {
		if strings.Contains(desc, tok) {
			add(RuleDescription, PointsToken, tok)
		}
		if strings.Contains(zone, tok) {
			add(RuleZone, PointsToken, tok)
		}
	}
	return s
}

// Result explains a match decision.
type Result struct {
	// Balloon is the matched balloon number, nil when nothing reached the
	// floor or the finding has no search value.
	Balloon *int `json:"balloon"`

	// Best is the winning score, regardless of the floor. Nil when there
	// were no items to score.
	Best   *Score  `json:"best,omitempty"`
	Scores []Score `json:"scores"`
}

// Explain scores every item and reports how the decision was reached.
// Strictly higher scores win; ties keep the earlier item.
func Explain(f model.Finding, items []model.ComparisonItem, cat model.Category) Result {
	res := Result{Scores: []Score{}}
	if f.SearchValue(cat).Absent() {
		return res
	}

	best := -1
	for i, item := range items {
		s := ScoreItem(f, cat, item)
		res.Scores = append(res.Scores, s)
		if best < 0 || s.Total > res.Scores[best].Total {
			best = i
		}
	}
	if best < 0 {
		return res
	}
	w := res.Scores[best]
	res.Best = &w
	if w.Total >= Floor {
		n := w.BalloonNumber
		res.Balloon = &n
	}
	return res
}

// Match returns the balloon number that best explains the finding, or
// false when no item scores at least Floor.
func Match(f model.Finding, items []model.ComparisonItem, cat model.Category) (int, bool) {
	r := Explain(f, items, cat)
	if r.Balloon == nil {
		return 0, false
	}
	return *r.Balloon, true
}

// FindingMatch is the correlation of one finding in a review.
type FindingMatch struct {
	Key      string         `json:"key"`
	Category model.Category `json:"category"`
	Index    int            `json:"index"`
	Finding  model.Finding  `json:"finding"`
	Balloon  *int           `json:"balloon"`
}

// Key identifies a finding within a review as "<category>:<index>".
func Key(c model.Category, index int) string {
	return fmt.Sprintf("%s:%d", c, index)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (model.Category, int, error) {
	cat, idx, ok := strings.Cut(key, ":")
	if !ok {
		return "", 0, fmt.Errorf("invalid finding key %q", key)
	}
	c, err := model.ParseCategory(cat)
	if err != nil {
		return "", 0, err
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return "", 0, fmt.Errorf("invalid finding index in key %q", key)
	}
	return c, i, nil
}

// MatchAll correlates every finding of a review, in category display order.
func MatchAll(review *model.ReviewResult, items []model.ComparisonItem) []FindingMatch {
	if review == nil {
		return nil
	}
	var out []FindingMatch
	for _, c := range model.Categories {
		for i, f := range review.Findings(c) {
			m := FindingMatch{Key: Key(c, i), Category: c, Index: i, Finding: f}
			if n, ok := Match(f, items, c); ok {
				m.Balloon = &n
			}
			out = append(out, m)
		}
	}
	return out
}
