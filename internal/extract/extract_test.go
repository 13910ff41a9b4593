package extract

import (
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/anskey/internal/model"
	"github.com/pavelanni/anskey/internal/testutil"
)

func mustParse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

var spanLabels = ModernOptions{Info: InfoLabels, SectionLabel: "span.section-lbl-text"}

func TestModernPanels(t *testing.T) {
	page := testutil.ModernPage(testutil.DefaultCandidate, testutil.LabelSpan, testutil.Group{
		{Name: "General Awareness", Panels: []testutil.Panel{
			{ID: "6307891", Chosen: "2", Correct: "2)"},
			{ID: "6307892", Chosen: "1", Correct: "3)"},
			{ID: "6307893", Chosen: "--", Correct: "4)"},
			{ID: "6307894", Chosen: "2", NoCorrect: true},
			{ID: "6307895", Chosen: "--", NoCorrect: true},
			{Type: "MCQ", ID: "6307896", Chosen: "1", Correct: "1)"},
		}},
	})

	got, err := Modern(mustParse(t, page), spanLabels)
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	if len(got.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got.Sections))
	}
	sec := got.Sections[0]
	if sec.Name != "General Awareness" {
		t.Errorf("section name = %q", sec.Name)
	}

	want := []struct {
		id      string
		outcome model.Outcome
	}{
		{"6307891", model.OutcomeRight},
		{"6307892", model.OutcomeWrong},
		{"6307893", model.OutcomeSkipped},
		{"6307894", model.OutcomeBonus},
		{"6307895", model.OutcomeBonus},
		{"6307896", model.OutcomeRight},
	}
	if len(sec.Questions) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(sec.Questions))
	}
	for i, w := range want {
		q := sec.Questions[i]
		if q.ID != w.id || q.Outcome != w.outcome {
			t.Errorf("question %d = (%q, %q), want (%q, %q)", i, q.ID, q.Outcome, w.id, w.outcome)
		}
	}
	if sec.Questions[0].Correct != "2" {
		t.Errorf("correct marker = %q, want 2", sec.Questions[0].Correct)
	}
}

func TestModernGroupsAndSections(t *testing.T) {
	page := testutil.ModernPage(testutil.DefaultCandidate, testutil.LabelPrefixedDiv,
		testutil.Group{
			{Name: "Numerical and Mathematical Ability", Panels: testutil.Repeat("MTS1-", 0, 2, testutil.Panel{Chosen: "1", Correct: "1)"})},
			{Name: "Reasoning Ability", Panels: testutil.Repeat("MTS2-", 0, 3, testutil.Panel{Chosen: "1", Correct: "1)"})},
		},
		testutil.Group{
			{Name: "General Awareness", Panels: testutil.Repeat("MTS3-", 0, 1, testutil.Panel{Chosen: "1", Correct: "1)"})},
		},
	)

	got, err := Modern(mustParse(t, page), ModernOptions{Info: InfoPositional, SectionLabel: "div.section-lbl", SectionPrefix: 9})
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	if len(got.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(got.Sections))
	}
	wantNames := []string{"Numerical and Mathematical Ability", "Reasoning Ability", "General Awareness"}
	wantGroups := []int{0, 0, 1}
	wantCounts := []int{2, 3, 1}
	for i, s := range got.Sections {
		if s.Name != wantNames[i] {
			t.Errorf("section %d name = %q, want %q", i, s.Name, wantNames[i])
		}
		if s.Group != wantGroups[i] {
			t.Errorf("section %d group = %d, want %d", i, s.Group, wantGroups[i])
		}
		if len(s.Questions) != wantCounts[i] {
			t.Errorf("section %d has %d questions, want %d", i, len(s.Questions), wantCounts[i])
		}
	}
}

func TestModernPositionalInfo(t *testing.T) {
	page := testutil.ModernPage(testutil.DefaultCandidate, testutil.LabelSpan)
	got, err := Modern(mustParse(t, page), ModernOptions{Info: InfoPositional, SectionLabel: "span.section-lbl-text"})
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	c := testutil.DefaultCandidate
	want := model.CandidateInfo{
		model.InfoRollNo:    c.RollNo,
		model.InfoCandName:  c.Name,
		model.InfoVenueName: c.Venue,
		model.InfoExamDate:  c.Date,
		model.InfoExamTime:  c.Time,
		model.InfoSubject:   c.Subject,
	}
	for k, v := range want {
		if got.Info[k] != v {
			t.Errorf("info[%s] = %q, want %q", k, got.Info[k], v)
		}
	}
}

func TestModernLabelInfo(t *testing.T) {
	page := `<table>
		<tr><td colspan="2">Candidate Response Sheet</td></tr>
		<tr><td>Subject</td><td>CHSL Tier I</td></tr>
		<tr><td>Candidate Name</td><td>Ravi Kumar</td></tr>
		<tr><td>Roll No</td><td>3201</td></tr>
		<tr><td>Test Time</td><td>2:00 PM</td></tr>
	</table><div class="wrapper"></div>`

	got, err := Modern(mustParse(t, page), spanLabels)
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	want := model.CandidateInfo{
		model.InfoSubject:  "CHSL Tier I",
		model.InfoCandName: "Ravi Kumar",
		model.InfoRollNo:   "3201",
		model.InfoExamTime: "2:00 PM",
	}
	if len(got.Info) != len(want) {
		t.Errorf("info = %v, want %v", got.Info, want)
	}
	for k, v := range want {
		if got.Info[k] != v {
			t.Errorf("info[%s] = %q, want %q", k, got.Info[k], v)
		}
	}
}

func TestModernStructureErrors(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		opts   ModernOptions
	}{
		{"no info table", `<div class="wrapper"></div>`, spanLabels},
		{"short positional table", `<table><tr><td>Roll</td><td>1</td></tr></table><div class="wrapper"></div>`,
			ModernOptions{Info: InfoPositional}},
		{"no wrapper", testutil.InfoTable(testutil.DefaultCandidate), spanLabels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Modern(mustParse(t, tt.markup), tt.opts)
			if !errors.Is(err, model.ErrStructureNotFound) {
				t.Errorf("expected ErrStructureNotFound, got %v", err)
			}
		})
	}
}

func TestModernSkipsMalformedPanels(t *testing.T) {
	page := testutil.InfoTable(testutil.DefaultCandidate) + `<div class="wrapper"><div class="grp-cntnr"><div class="section-cntnr">
		<span class="section-lbl-text">English</span>` +
		testutil.PanelHTML(1, testutil.Panel{ID: "9900001", Chosen: "3", Correct: "3)"}) +
		`<div class="question-pnl"><p>stray panel without a menu table</p></div>
		<div class="question-pnl"><table class="menu-tbl"><tr><td>no marks</td></tr></table></div>
	</div></div></div>`

	got, err := Modern(mustParse(t, page), spanLabels)
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	if got.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", got.Malformed)
	}
	if n := len(got.Sections[0].Questions); n != 1 {
		t.Errorf("expected 1 usable question, got %d", n)
	}
}

func TestSectionNameFallback(t *testing.T) {
	page := testutil.InfoTable(testutil.DefaultCandidate) + `<div class="wrapper"><div class="grp-cntnr"><div class="section-cntnr">` +
		testutil.PanelHTML(1, testutil.Panel{ID: "9900001", Chosen: "3", Correct: "3)"}) +
		`</div></div></div>`

	got, err := Modern(mustParse(t, page), spanLabels)
	if err != nil {
		t.Fatalf("Modern: %v", err)
	}
	if got.Sections[0].Name != "Unknown Section" {
		t.Errorf("section name = %q, want Unknown Section", got.Sections[0].Name)
	}
}

func TestLegacy(t *testing.T) {
	page := testutil.LegacyPage(testutil.DefaultCandidate, "green", "green", "red", "green", "red", "gray", "")

	got, err := Legacy(mustParse(t, page))
	if err != nil {
		t.Fatalf("Legacy: %v", err)
	}
	if len(got.Sections) != 1 || got.Sections[0].Name != "Overall Paper" {
		t.Fatalf("sections = %+v, want one Overall Paper section", got.Sections)
	}
	qs := got.Sections[0].Questions
	want := []model.Outcome{
		model.OutcomeRight, model.OutcomeRight, model.OutcomeWrong, model.OutcomeRight,
		model.OutcomeWrong, model.OutcomeSkipped, model.OutcomeBonus,
	}
	if len(qs) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(qs))
	}
	for i, o := range want {
		if qs[i].Outcome != o {
			t.Errorf("question %d outcome = %q, want %q", i, qs[i].Outcome, o)
		}
	}
	if qs[0].ID != "Q-1" || qs[6].ID != "Q-7" {
		t.Errorf("ids = %q..%q, want Q-1..Q-7", qs[0].ID, qs[6].ID)
	}

	if got.Info[model.InfoRollNo] != testutil.DefaultCandidate.RollNo {
		t.Errorf("roll_no = %q, want %q", got.Info[model.InfoRollNo], testutil.DefaultCandidate.RollNo)
	}
	if got.Info[model.InfoCandName] != testutil.DefaultCandidate.Name {
		t.Errorf("cand_name = %q", got.Info[model.InfoCandName])
	}
}

func TestLegacyVendorQuestionID(t *testing.T) {
	page := `<table border="2" cellpadding="2">
		<tr><td>Question ID : 7781</td></tr>
		<tr bgcolor="GREEN"><td>1) a</td></tr>
	</table>
	<table border="2" cellpadding="2">
		<tr><td>Question ID</td><td>7782</td></tr>
		<tr bgcolor="red"><td>1) a</td></tr>
	</table>`

	got, err := Legacy(mustParse(t, page))
	if err != nil {
		t.Fatalf("Legacy: %v", err)
	}
	qs := got.Sections[0].Questions
	if qs[0].ID != "7781" || qs[0].Outcome != model.OutcomeRight {
		t.Errorf("question 0 = %+v", qs[0])
	}
	if qs[1].ID != "7782" || qs[1].Outcome != model.OutcomeWrong {
		t.Errorf("question 1 = %+v", qs[1])
	}
	if len(got.Info) != 0 {
		t.Errorf("expected empty info without an info block, got %v", got.Info)
	}
}

func TestLegacyVendorQuestionIDLeafCells(t *testing.T) {
	page := `<table border="2" cellpadding="2">
		<tr><td><table>
			<tr><td>Question ID :</td><td>8801</td></tr>
			<tr><td>Chosen Option :</td><td>2</td></tr>
		</table></td></tr>
		<tr bgcolor="gray"><td>1) a</td></tr>
	</table>
	<table border="2" cellpadding="2">
		<tr><td>QUESTION ID: 8802</td></tr>
		<tr bgcolor="green"><td>1) a</td></tr>
	</table>
	<table border="2" cellpadding="2">
		<tr><td>प्रश्न आईडी</td><td>9999</td></tr>
		<tr bgcolor="red"><td>1) a</td></tr>
	</table>
	<table border="2" cellpadding="2">
		<tr><td>Qu</td><td>9998</td></tr>
		<tr bgcolor="red"><td>1) a</td></tr>
	</table>`

	got, err := Legacy(mustParse(t, page))
	if err != nil {
		t.Fatalf("Legacy: %v", err)
	}
	want := []string{"8801", "8802", "Q-3", "Q-4"}
	qs := got.Sections[0].Questions
	if len(qs) != len(want) {
		t.Fatalf("got %d questions, want %d", len(qs), len(want))
	}
	for i, w := range want {
		if qs[i].ID != w {
			t.Errorf("question %d id = %q, want %q", i, qs[i].ID, w)
		}
	}
}

func TestCutLabel(t *testing.T) {
	tests := []struct {
		in   string
		rest string
		ok   bool
	}{
		{"Question ID : 1", " : 1", true},
		{"question id", "", true},
		{"QUESTION IDé", "é", true},
		{"Question", "", false},
		{"प्रश्न आईडी संख्या", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		rest, ok := cutLabel(tt.in, questionIDLabel)
		if rest != tt.rest || ok != tt.ok {
			t.Errorf("cutLabel(%q) = (%q, %v), want (%q, %v)", tt.in, rest, ok, tt.rest, tt.ok)
		}
	}
}

func TestLegacyNoQuestions(t *testing.T) {
	_, err := Legacy(mustParse(t, "<html><body><p>hello</p></body></html>"))
	if !errors.Is(err, model.ErrStructureNotFound) {
		t.Errorf("expected ErrStructureNotFound, got %v", err)
	}
}
