package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/anskey/internal/model"
)

const (
	// LegacyQuestionSelector matches one question table in the color-coded grammar.
	LegacyQuestionSelector = `table[border="2"][cellpadding="2"]`
	// LegacySectionName names the single section legacy documents aggregate into.
	LegacySectionName = "Overall Paper"

	legacyInfoOuter = 3 // index of the page table holding the info block
	legacyInfoInner = 1 // index of the nested info table within it
)

var legacyRowColors = []struct {
	color   string
	outcome model.Outcome
}{
	{"green", model.OutcomeRight},
	{"red", model.OutcomeWrong},
	{"gray", model.OutcomeSkipped},
}

// Legacy extracts a color-coded document. Candidate details are best effort;
// questions carry synthesized sequential IDs unless the table prints its own.
func Legacy(doc *goquery.Document) (Document, error) {
	tables := doc.Find(LegacyQuestionSelector)
	if tables.Length() == 0 {
		return Document{}, fmt.Errorf("%w: no question tables", model.ErrStructureNotFound)
	}

	out := Document{Info: legacyInfo(doc)}
	sec := model.Section{Name: LegacySectionName}
	tables.Each(func(i int, t *goquery.Selection) {
		id := vendorQuestionID(t)
		if id == "" {
			id = fmt.Sprintf("Q-%d", i+1)
		}
		sec.Questions = append(sec.Questions, model.Question{
			ID:      id,
			Outcome: rowOutcome(t),
		})
	})
	out.Sections = []model.Section{sec}
	return out, nil
}

func legacyInfo(doc *goquery.Document) model.CandidateInfo {
	info := model.CandidateInfo{}
	outer := doc.Find("table").Eq(legacyInfoOuter)
	inner := outer.Find("table").Eq(legacyInfoInner)
	if inner.Length() == 0 {
		slog.Warn("legacy candidate info table not found")
		return info
	}
	cells := inner.Find("td")
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i+1 >= cells.Length() {
			return false
		}
		key, ok := matchLabel(text(cell))
		if !ok {
			return true
		}
		if _, seen := info[key]; seen {
			return true
		}
		info[key] = strings.TrimSpace(strings.ReplaceAll(text(cells.Eq(i+1)), ":", ""))
		return true
	})
	return info
}

func rowOutcome(t *goquery.Selection) model.Outcome {
	rows := t.Find("tr[bgcolor]")
	for _, rc := range legacyRowColors {
		match := rows.FilterFunction(func(_ int, r *goquery.Selection) bool {
			c, _ := r.Attr("bgcolor")
			return strings.EqualFold(strings.TrimSpace(c), rc.color)
		})
		if match.Length() > 0 {
			return rc.outcome
		}
	}
	return model.OutcomeBonus
}

const questionIDLabel = "question id"

// vendorQuestionID returns an ID printed in a "Question ID" cell, if any.
// Only leaf cells are considered so a wrapping cell never masks the label.
func vendorQuestionID(t *goquery.Selection) string {
	var id string
	cells := t.Find("td").FilterFunction(func(_ int, c *goquery.Selection) bool {
		return c.Find("td").Length() == 0
	})
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		rest, ok := cutLabel(text(cell), questionIDLabel)
		if !ok {
			return true
		}
		id = strings.TrimSpace(strings.TrimLeft(rest, " :.-"))
		if id == "" && i+1 < cells.Length() {
			id = strings.TrimSpace(strings.TrimLeft(text(cells.Eq(i+1)), ":"))
		}
		return false
	})
	return id
}

// cutLabel reports whether s starts with label, ignoring case, and returns
// the remainder. The cut always falls on a rune boundary of s.
func cutLabel(s, label string) (string, bool) {
	want := utf8.RuneCountInString(label)
	n := 0
	for off := range s {
		if n == want {
			if !strings.EqualFold(s[:off], label) {
				return "", false
			}
			return s[off:], true
		}
		n++
	}
	if n == want {
		return "", strings.EqualFold(s, label)
	}
	return "", false
}
