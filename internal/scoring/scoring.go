// Package scoring applies a marking scheme to classified questions.
package scoring

import (
	"math"

	"github.com/pavelanni/anskey/internal/model"
)

// SectionScore is the unrounded result for one section.
type SectionScore struct {
	Tally model.Tally
	Marks float64
}

// Breakdown holds unrounded marks. Round2 is applied only when values are emitted.
type Breakdown struct {
	Sections    []SectionScore
	GroupTotals map[int]float64
	Total       float64
}

// Score computes per-section marks as (right+bonus)*positive - wrong*negative,
// where the penalty is zero for sections in a waived group.
func Score(sections []model.Section, rules model.Rules) Breakdown {
	b := Breakdown{
		Sections:    make([]SectionScore, len(sections)),
		GroupTotals: make(map[int]float64),
	}
	for i, s := range sections {
		t := s.Tally()
		marks := float64(t.Right+t.Bonus)*rules.Positive - float64(t.Wrong)*rules.NegativeFor(s.Group)
		b.Sections[i] = SectionScore{Tally: t, Marks: marks}
		b.GroupTotals[s.Group] += marks
		b.Total += marks
	}
	return b
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // normalise -0
	}
	return r
}
