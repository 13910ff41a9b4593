package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/anskey/internal/model"
)

// InfoMode selects how candidate details are read from the info table.
type InfoMode int

const (
	// InfoPositional reads values from fixed odd cell positions.
	InfoPositional InfoMode = iota
	// InfoLabels scans two-cell rows and matches labels against a vocabulary.
	InfoLabels
)

// positionalCells are the value cells of a rigid info table, in InfoKeys order.
var positionalCells = []int{1, 3, 5, 7, 9, 11}

const (
	minQuestionIDLen = 5
	unknownSection   = "Unknown Section"
)

// ModernOptions tune the class-tagged grammar per exam type.
type ModernOptions struct {
	Info InfoMode
	// SectionLabel selects the section name element inside a section container.
	SectionLabel string
	// SectionPrefix is the number of leading characters to drop from the section name.
	SectionPrefix int
}

// Modern extracts a class-tagged document: a wrapper holding group containers,
// each holding section containers of question panels.
func Modern(doc *goquery.Document, opts ModernOptions) (Document, error) {
	var (
		out Document
		err error
	)
	switch opts.Info {
	case InfoLabels:
		out.Info, err = labelInfo(doc)
	default:
		out.Info, err = positionalInfo(doc)
	}
	if err != nil {
		return Document{}, err
	}

	wrapper := doc.Find("div.wrapper").First()
	if wrapper.Length() == 0 {
		return Document{}, fmt.Errorf("%w: question wrapper missing", model.ErrStructureNotFound)
	}

	wrapper.Find("div.grp-cntnr").Each(func(group int, g *goquery.Selection) {
		g.Find("div.section-cntnr").Each(func(_ int, s *goquery.Selection) {
			sec := model.Section{
				Name:  sectionName(s, opts),
				Group: group,
			}
			s.Find("div.question-pnl").Each(func(i int, panel *goquery.Selection) {
				q, err := parsePanel(panel)
				if err != nil {
					out.Malformed++
					slog.Warn("skipping question panel", "section", sec.Name, "index", i, "error", err)
					return
				}
				sec.Questions = append(sec.Questions, q)
			})
			out.Sections = append(out.Sections, sec)
		})
	})
	return out, nil
}

func positionalInfo(doc *goquery.Document) (model.CandidateInfo, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: candidate info table missing", model.ErrStructureNotFound)
	}
	cells := table.Find("td")
	last := positionalCells[len(positionalCells)-1]
	if cells.Length() <= last {
		return nil, fmt.Errorf("%w: candidate info table has %d cells, want at least %d",
			model.ErrStructureNotFound, cells.Length(), last+1)
	}
	info := make(model.CandidateInfo, len(model.InfoKeys))
	for i, key := range model.InfoKeys {
		info[key] = text(cells.Eq(positionalCells[i]))
	}
	return info, nil
}

func labelInfo(doc *goquery.Document) (model.CandidateInfo, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: candidate info table missing", model.ErrStructureNotFound)
	}
	info := model.CandidateInfo{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		if key, ok := matchLabel(text(cells.Eq(0))); ok {
			info[key] = text(cells.Eq(1))
		}
	})
	return info, nil
}

func sectionName(s *goquery.Selection, opts ModernOptions) string {
	label := s.Find(opts.SectionLabel).First()
	if opts.SectionLabel == "" || label.Length() == 0 {
		return unknownSection
	}
	name := text(label)
	if opts.SectionPrefix > 0 {
		runes := []rune(name)
		if len(runes) <= opts.SectionPrefix {
			return unknownSection
		}
		name = string(runes[opts.SectionPrefix:])
	}
	return strings.TrimSpace(name)
}

func parsePanel(panel *goquery.Selection) (model.Question, error) {
	menu := panel.Find("table.menu-tbl").First()
	if menu.Length() == 0 {
		return model.Question{}, fmt.Errorf("%w: menu table missing", model.ErrMalformedQuestion)
	}
	bold := menu.Find("td.bold")
	if bold.Length() == 0 {
		return model.Question{}, fmt.Errorf("%w: no marked cells", model.ErrMalformedQuestion)
	}

	id := text(bold.Eq(0))
	if utf8.RuneCountInString(id) < minQuestionIDLen && bold.Length() > 1 {
		id = text(bold.Eq(1))
	}
	if id == "" {
		return model.Question{}, fmt.Errorf("%w: empty question id", model.ErrMalformedQuestion)
	}

	q := model.Question{
		ID:     id,
		Chosen: text(bold.Last()),
	}
	var correct string
	if right := panel.Find("td.rightAns").First(); right.Length() > 0 {
		correct = text(right)
	}
	q.Correct = model.CorrectMarker(correct)
	q.HasCorrect = q.Correct != ""
	q.Outcome = model.Classify(q.Chosen, correct, q.HasCorrect)
	return q, nil
}
