// Package detect picks the template grammar of an answer key document.
package detect

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/anskey/internal/model"
)

const (
	// LegacyHostToken appears in URLs served by the legacy vendor.
	LegacyHostToken = "ssccbt.com"
	// LegacyMarkupMarker is the banner printed on legacy vendor pages.
	LegacyMarkupMarker = "SSC ONLINE EXAMINATION"
	// ModernHostToken appears in URLs served by the modern vendor.
	ModernHostToken = "digialm"
	// ModernGroupSelector matches the modern vendor's section-group container.
	ModernGroupSelector = "div.grp-cntnr"
)

// Detect returns the grammar for a document. It never fails: when neither vendor
// is recognised it falls back to the legacy grammar.
func Detect(hint, markup string) model.Format {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return DetectDocument(hint, markup, nil)
	}
	return DetectDocument(hint, markup, doc)
}

// DetectDocument is Detect for callers that already parsed the markup.
func DetectDocument(hint, markup string, doc *goquery.Document) model.Format {
	if strings.Contains(hint, LegacyHostToken) || strings.Contains(markup, LegacyMarkupMarker) {
		return model.FormatLegacy
	}
	if strings.Contains(hint, ModernHostToken) {
		return model.FormatModern
	}
	if doc != nil && doc.Find(ModernGroupSelector).Length() > 0 {
		return model.FormatModern
	}
	slog.Warn("could not determine answer key format, falling back to legacy", "hint", hint)
	return model.FormatLegacy
}
