// Package assemble merges extraction and scoring output into an ExamResult.
package assemble

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/pavelanni/anskey/internal/model"
	"github.com/pavelanni/anskey/internal/scoring"
)

// Input is everything the assembler needs from upstream stages.
type Input struct {
	ExamType string
	Format   model.Format
	Info     model.CandidateInfo
	Sections []model.Section
	Score    scoring.Breakdown
	// GroupSubtotals emits named totals for the first and second group.
	GroupSubtotals bool
}

// Assemble builds the result record. It returns no partial object: missing
// candidate info or sections are reported as ErrStructureNotFound.
func Assemble(in Input) (*model.ExamResult, error) {
	if in.Info == nil {
		return nil, fmt.Errorf("%w: no candidate info", model.ErrStructureNotFound)
	}
	if len(in.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", model.ErrStructureNotFound)
	}
	if len(in.Score.Sections) != len(in.Sections) {
		return nil, fmt.Errorf("score has %d sections, document has %d", len(in.Score.Sections), len(in.Sections))
	}

	res := &model.ExamResult{
		ExamType:      in.ExamType,
		Format:        in.Format,
		CandidateInfo: maps.Clone(in.Info),
		Sections:      make([]model.SectionSummary, len(in.Sections)),
		QuestionWise:  make(map[string]model.Outcome),
		Summary: model.Summary{
			TotalMarks: scoring.Round2(in.Score.Total),
		},
	}

	for i, s := range in.Sections {
		sc := in.Score.Sections[i]
		total := sc.Tally.Total()
		res.Sections[i] = model.SectionSummary{
			Name:           s.Name,
			Group:          s.Group,
			TotalQuestions: total,
			Attempted:      total - sc.Tally.Skipped,
			NotAttempted:   sc.Tally.Skipped,
			Right:          sc.Tally.Right,
			Wrong:          sc.Tally.Wrong,
			Bonus:          sc.Tally.Bonus,
			Marks:          scoring.Round2(sc.Marks),
		}
		for _, q := range s.Questions {
			res.QuestionWise[uniqueID(res.QuestionWise, q.ID)] = q.Outcome
		}
	}

	if in.GroupSubtotals {
		one := scoring.Round2(in.Score.GroupTotals[0])
		two := scoring.Round2(in.Score.GroupTotals[1])
		res.Summary.SectionOneTotal = &one
		res.Summary.SectionTwoTotal = &two
	}
	return res, nil
}

// uniqueID returns id, or id with a "#n" suffix when id is already taken.
// Vendor IDs are not guaranteed unique across sections.
func uniqueID(seen map[string]model.Outcome, id string) string {
	if _, ok := seen[id]; !ok {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "#" + strconv.Itoa(n)
		if _, ok := seen[candidate]; !ok {
			return candidate
		}
	}
}
