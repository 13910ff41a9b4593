// Package exam binds exam types to their grammar and marking scheme and runs
// the load, detect, extract, score, assemble pipeline.
package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/anskey/internal/assemble"
	"github.com/pavelanni/anskey/internal/detect"
	"github.com/pavelanni/anskey/internal/extract"
	"github.com/pavelanni/anskey/internal/model"
	"github.com/pavelanni/anskey/internal/scoring"
)

// ErrUnknownType is returned by Lookup for an unregistered exam type name.
var ErrUnknownType = errors.New("unknown exam type")

// Type describes one exam and how its answer keys are read and marked.
type Type struct {
	Name  string
	Title string
	Rules model.Rules
	// Detect enables live format detection; otherwise the modern grammar is assumed.
	Detect bool
	Modern extract.ModernOptions
	// GroupSubtotals emits totals for the first and second group.
	GroupSubtotals bool
}

var (
	// MTS: first group is exempt from negative marking.
	MTS = Type{
		Name:  "mts",
		Title: "SSC MTS",
		Rules: model.Rules{Positive: 3, Negative: 1, WaivedGroups: map[int]bool{0: true}},
		Modern: extract.ModernOptions{
			Info:          extract.InfoPositional,
			SectionLabel:  "div.section-lbl",
			SectionPrefix: len("Section :"),
		},
		GroupSubtotals: true,
	}
	// JE: uniform negative marking.
	JE = Type{
		Name:  "je",
		Title: "SSC JE",
		Rules: model.Rules{Positive: 1, Negative: 0.25},
		Modern: extract.ModernOptions{
			Info:         extract.InfoPositional,
			SectionLabel: "span.section-lbl-text",
		},
	}
	// CHSL answer keys come from either vendor.
	CHSL = Type{
		Name:   "chsl",
		Title:  "SSC CHSL",
		Rules:  model.Rules{Positive: 2, Negative: 0.5},
		Detect: true,
		Modern: extract.ModernOptions{
			Info:         extract.InfoLabels,
			SectionLabel: "span.section-lbl-text",
		},
	}
)

// Types returns the registered exam types.
func Types() []Type {
	return []Type{MTS, JE, CHSL}
}

// Lookup finds an exam type by name, case-insensitively.
func Lookup(name string) (Type, error) {
	for _, t := range Types() {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Source yields answer key markup for a URL or local path.
type Source interface {
	Load(ctx context.Context, source string, isLocal bool) (string, error)
}

// Evaluator runs evaluations. It holds no per-call state and is safe for
// concurrent use when its Source is.
type Evaluator struct {
	src Source
}

// New creates an Evaluator.
func New(src Source) *Evaluator {
	return &Evaluator{src: src}
}

// Evaluate loads source and scores it as exam type t.
func (e *Evaluator) Evaluate(ctx context.Context, t Type, source string, isLocal bool) (*model.ExamResult, error) {
	log := slog.With("exam", t.Name, "source", source, "local", isLocal)
	log.Debug("loading answer key")
	markup, err := e.src.Load(ctx, source, isLocal)
	if err != nil {
		return nil, err
	}
	res, err := EvaluateMarkup(t, source, markup)
	if err != nil {
		log.Warn("evaluation failed", "error", err)
		return nil, err
	}
	log.Info("evaluated answer key",
		"format", res.Format,
		"sections", len(res.Sections),
		"questions", len(res.QuestionWise),
		"total_marks", res.Summary.TotalMarks,
	)
	return res, nil
}

// EvaluateMTS evaluates an SSC MTS answer key.
func (e *Evaluator) EvaluateMTS(ctx context.Context, source string, isLocal bool) (*model.ExamResult, error) {
	return e.Evaluate(ctx, MTS, source, isLocal)
}

// EvaluateJE evaluates an SSC JE answer key.
func (e *Evaluator) EvaluateJE(ctx context.Context, source string, isLocal bool) (*model.ExamResult, error) {
	return e.Evaluate(ctx, JE, source, isLocal)
}

// EvaluateCHSL evaluates an SSC CHSL answer key from either vendor.
func (e *Evaluator) EvaluateCHSL(ctx context.Context, source string, isLocal bool) (*model.ExamResult, error) {
	return e.Evaluate(ctx, CHSL, source, isLocal)
}

// EvaluateMarkup scores already loaded markup. hint is the URL or path the
// markup came from and only informs format detection.
func EvaluateMarkup(t Type, hint, markup string) (*model.ExamResult, error) {
	doc, err := extract.Parse(markup)
	if err != nil {
		return nil, err
	}

	format := model.FormatModern
	if t.Detect {
		format = detect.DetectDocument(hint, markup, doc)
	}
	slog.Debug("selected grammar", "exam", t.Name, "format", format)

	var parsed extract.Document
	switch format {
	case model.FormatLegacy:
		parsed, err = extract.Legacy(doc)
	default:
		parsed, err = extract.Modern(doc, t.Modern)
	}
	if err != nil {
		return nil, err
	}
	if parsed.Malformed > 0 {
		slog.Warn("skipped malformed question panels", "exam", t.Name, "count", parsed.Malformed)
	}

	return assemble.Assemble(assemble.Input{
		ExamType:       t.Name,
		Format:         format,
		Info:           parsed.Info,
		Sections:       parsed.Sections,
		Score:          scoring.Score(parsed.Sections, t.Rules),
		GroupSubtotals: t.GroupSubtotals,
	})
}
