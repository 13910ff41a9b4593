// Package testutil builds answer key pages for tests.
package testutil

import (
	"fmt"
	"html"
	"strings"
)

// Candidate is the info block printed at the top of a page.
type Candidate struct {
	RollNo, Name, Venue, Date, Time, Subject string
}

// DefaultCandidate is used when a test does not care about candidate details.
var DefaultCandidate = Candidate{
	RollNo:  "2201001234",
	Name:    "Asha Verma",
	Venue:   "iON Digital Zone, Delhi",
	Date:    "05/09/2024",
	Time:    "9:00 AM - 10:30 AM",
	Subject: "Multi Tasking Staff",
}

// Panel is one modern-grammar question panel.
type Panel struct {
	Type      string // optional short leading marked cell, e.g. "MCQ"
	ID        string
	Chosen    string // "--" for not answered
	Correct   string // e.g. "2)"; ignored when NoCorrect
	NoCorrect bool
}

// Section is a named run of panels.
type Section struct {
	Name   string
	Panels []Panel
}

// Group is a top-level group container.
type Group []Section

// LabelStyle controls how section names are printed.
type LabelStyle int

const (
	// LabelSpan prints <span class="section-lbl-text">Name</span>.
	LabelSpan LabelStyle = iota
	// LabelPrefixedDiv prints <div class="section-lbl">Section : Name</div>.
	LabelPrefixedDiv
)

// InfoTable renders a two-column candidate info table. Values sit in the odd
// cells, so the same table serves positional and label lookups.
func InfoTable(c Candidate) string {
	rows := [][2]string{
		{"Roll Number", c.RollNo},
		{"Candidate Name", c.Name},
		{"Venue Name", c.Venue},
		{"Exam Date", c.Date},
		{"Exam Time", c.Time},
		{"Subject", c.Subject},
	}
	var b strings.Builder
	b.WriteString(`<table class="main-info-pnl">`)
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", r[0], html.EscapeString(r[1]))
	}
	b.WriteString("</table>")
	return b.String()
}

// ModernPage renders a complete class-tagged answer key.
func ModernPage(c Candidate, style LabelStyle, groups ...Group) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Answer Key</title></head><body>")
	b.WriteString(InfoTable(c))
	b.WriteString(`<div class="wrapper">`)
	for _, g := range groups {
		b.WriteString(`<div class="grp-cntnr">`)
		for _, s := range g {
			b.WriteString(`<div class="section-cntnr">`)
			switch style {
			case LabelPrefixedDiv:
				fmt.Fprintf(&b, `<div class="section-lbl">Section : %s</div>`, html.EscapeString(s.Name))
			default:
				fmt.Fprintf(&b, `<div class="section-lbl"><span class="bold">Section : </span><span class="section-lbl-text">%s</span></div>`, html.EscapeString(s.Name))
			}
			for i, p := range s.Panels {
				b.WriteString(PanelHTML(i+1, p))
			}
			b.WriteString("</div>")
		}
		b.WriteString("</div>")
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// PanelHTML renders a single question panel.
func PanelHTML(n int, p Panel) string {
	var b strings.Builder
	b.WriteString(`<div class="question-pnl"><table class="questionRowTbl">`)
	fmt.Fprintf(&b, `<tr><td class="bold">Q.%d</td><td>Question text</td></tr>`, n)
	for opt := 1; opt <= 4; opt++ {
		label := fmt.Sprintf("%d) Option %d", opt, opt)
		if !p.NoCorrect && strings.HasPrefix(p.Correct, fmt.Sprintf("%d", opt)) {
			fmt.Fprintf(&b, `<tr><td class="rightAns">%s</td></tr>`, label)
			continue
		}
		fmt.Fprintf(&b, `<tr><td class="wrngAns">%s</td></tr>`, label)
	}
	b.WriteString(`</table><table class="menu-tbl">`)
	if p.Type != "" {
		fmt.Fprintf(&b, `<tr><td>Question Type :</td><td class="bold">%s</td></tr>`, p.Type)
	}
	fmt.Fprintf(&b, `<tr><td>Question ID :</td><td class="bold">%s</td></tr>`, p.ID)
	b.WriteString(`<tr><td>Status :</td><td class="bold">Answered</td></tr>`)
	fmt.Fprintf(&b, `<tr><td>Chosen Option :</td><td class="bold">%s</td></tr>`, p.Chosen)
	b.WriteString("</table></div>")
	return b.String()
}

// LegacyPage renders a color-coded answer key with one question table per
// row color. Use "" for a question with no colored row.
func LegacyPage(c Candidate, colors ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(`<table><tr><td>SSC ONLINE EXAMINATION</td></tr></table>`)
	b.WriteString(`<table><tr><td>Answer Key</td></tr></table>`)
	b.WriteString(`<table><tr><td>&nbsp;</td></tr></table>`)
	b.WriteString(`<table><tr><td><table><tr><td>logo</td></tr></table><table>`)
	fmt.Fprintf(&b, `<tr><td>Roll Number</td><td>: %s</td></tr>`, c.RollNo)
	fmt.Fprintf(&b, `<tr><td>Candidate Name</td><td>: %s</td></tr>`, html.EscapeString(c.Name))
	fmt.Fprintf(&b, `<tr><td>Exam Date</td><td>: %s</td></tr>`, c.Date)
	b.WriteString(`</table></td></tr></table>`)
	for i, color := range colors {
		b.WriteString(`<table border="2" cellpadding="2">`)
		fmt.Fprintf(&b, `<tr><td>Q.%d</td><td>Question text</td></tr>`, i+1)
		for opt := 1; opt <= 4; opt++ {
			if opt == 1 && color != "" {
				fmt.Fprintf(&b, `<tr bgcolor="%s"><td>%d) Option</td></tr>`, color, opt)
				continue
			}
			fmt.Fprintf(&b, `<tr><td>%d) Option</td></tr>`, opt)
		}
		b.WriteString("</table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// Repeat returns n copies of p with sequential IDs built from prefix.
func Repeat(prefix string, start, n int, p Panel) []Panel {
	out := make([]Panel, n)
	for i := range out {
		out[i] = p
		out[i].ID = fmt.Sprintf("%s%d", prefix, start+i)
	}
	return out
}
