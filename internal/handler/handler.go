package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/anskey/internal/exam"
	"github.com/pavelanni/anskey/internal/handler/views"
	appI18n "github.com/pavelanni/anskey/internal/i18n"
	"github.com/pavelanni/anskey/internal/model"
)

// DefaultMaxUpload bounds request bodies when the config leaves MaxUpload unset.
const DefaultMaxUpload = 10 << 20

var (
	errMissingInput    = errors.New("no answer key url or file provided")
	errInvalidFileType = errors.New("only .html and .htm uploads are accepted")
)

// page binds an exam type to its web route.
type page struct {
	exam exam.Type
	view views.Exam
}

var pages = []page{
	{exam.MTS, views.Exam{Path: "/", TitleID: "ExamMTS"}},
	{exam.JE, views.Exam{Path: "/ssc-je", TitleID: "ExamJE"}},
	{exam.CHSL, views.Exam{Path: "/chsl", TitleID: "ExamCHSL"}},
}

func navigation() []views.Exam {
	out := make([]views.Exam, len(pages))
	for i, p := range pages {
		out[i] = p.view
	}
	return out
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	eval   *exam.Evaluator
	config model.ServerConfig
}

// New creates a new Handler.
func New(eval *exam.Evaluator, cfg model.ServerConfig) (*Handler, error) {
	if eval == nil {
		return nil, errors.New("evaluator is required")
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Handler{eval: eval, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limitBody)
		r.Use(h.csrfMiddleware)
		for _, p := range pages {
			r.Get(p.view.Path, h.handleIndex(p))
			r.Post(p.view.Path, h.handleSubmit(p))
		}
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(h.limitBody)
		r.Get("/exams", h.handleAPIExams)
		r.Post("/score/{exam}", h.handleAPIScore)
	})
	r.Get("/sitemap.xml", h.handleSitemap)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func (h *Handler) handleIndex(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderIndex(w, r, p, http.StatusOK, nil)
	}
}

func (h *Handler) handleSubmit(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, isLocal, cleanup, err := h.sourceFromRequest(r)
		if err != nil {
			h.renderFailure(w, r, p, err)
			return
		}
		defer cleanup()

		res, err := h.eval.Evaluate(r.Context(), p.exam, source, isLocal)
		if err != nil {
			h.renderFailure(w, r, p, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.ResultPage(navigation(), p.view, res).Render(r.Context(), w); err != nil {
			slog.Error("render error", "error", err)
		}
	}
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, p page, status int, flash *views.Flash) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.IndexPage(navigation(), p.view, flash).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, p page, err error) {
	status, msgID := classify(err)
	level := "danger"
	if status == http.StatusBadRequest {
		level = "warning"
	}
	slog.Warn("answer key rejected", "exam", p.exam.Name, "status", status, "error", err)
	title := appI18n.T(r.Context(), p.view.TitleID)
	h.renderIndex(w, r, p, status, &views.Flash{
		Level:   level,
		Message: appI18n.Td(r.Context(), msgID, map[string]any{"Exam": title}),
	})
}

// classify maps an error to an HTTP status and a message ID.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "ErrFileTooLarge"
	case errors.Is(err, errMissingInput):
		return http.StatusBadRequest, "ErrMissingInput"
	case errors.Is(err, errInvalidFileType):
		return http.StatusBadRequest, "ErrInvalidFileType"
	case errors.Is(err, exam.ErrUnknownType):
		return http.StatusNotFound, "ErrUnknownExam"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "ErrNotFound"
	case errors.Is(err, model.ErrFetchFailed):
		return http.StatusBadGateway, "ErrFetchFailed"
	case errors.Is(err, model.ErrStructureNotFound):
		return http.StatusUnprocessableEntity, "ErrStructureNotFound"
	default:
		return http.StatusInternalServerError, "ErrProcessFailed"
	}
}

// sourceFromRequest picks the answer key source from a parsed form. A URL
// wins over an upload. Uploads are saved under the upload dir; cleanup
// removes the saved copy.
func (h *Handler) sourceFromRequest(r *http.Request) (source string, isLocal bool, cleanup func(), err error) {
	noop := func() {}
	if u := strings.TrimSpace(r.FormValue(views.FieldURL)); u != "" {
		return u, false, noop, nil
	}

	file, header, err := r.FormFile(views.FieldFile)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) || (err == nil && header.Filename == "") {
		if file != nil {
			file.Close()
		}
		return "", false, noop, errMissingInput
	}
	if err != nil {
		return "", false, noop, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	path, err := h.saveUpload(file, header)
	if err != nil {
		return "", false, noop, err
	}
	return path, true, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove upload", "path", path, "error", err)
		}
	}, nil
}

func (h *Handler) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".html" && ext != ".htm" {
		return "", fmt.Errorf("%w: %q", errInvalidFileType, header.Filename)
	}
	path := filepath.Join(h.config.UploadDir, uuid.NewString()+ext)
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	slog.Debug("saved upload", "filename", header.Filename, "path", path, "size", header.Size)
	return path, nil
}

type apiExam struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

func (h *Handler) handleAPIExams(w http.ResponseWriter, _ *http.Request) {
	var out []apiExam
	for _, t := range exam.Types() {
		out = append(out, apiExam{
			Name:     t.Name,
			Title:    t.Title,
			Positive: t.Rules.Positive,
			Negative: t.Rules.Negative,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type apiScoreRequest struct {
	URL string `json:"url"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) handleAPIScore(w http.ResponseWriter, r *http.Request) {
	t, err := exam.Lookup(chi.URLParam(r, "exam"))
	if err != nil {
		h.writeAPIError(w, r, t, err)
		return
	}

	var (
		source  string
		isLocal bool
		cleanup = func() {}
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.config.MaxUpload); err != nil {
			h.writeAPIError(w, r, t, err)
			return
		}
		source, isLocal, cleanup, err = h.sourceFromRequest(r)
	} else {
		var req apiScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json", Message: err.Error()})
			return
		}
		source = strings.TrimSpace(req.URL)
		if source == "" {
			err = errMissingInput
		}
	}
	if err != nil {
		h.writeAPIError(w, r, t, err)
		return
	}
	defer cleanup()

	res, err := h.eval.Evaluate(r.Context(), t, source, isLocal)
	if err != nil {
		h.writeAPIError(w, r, t, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeAPIError(w http.ResponseWriter, r *http.Request, t exam.Type, err error) {
	status, msgID := classify(err)
	slog.Warn("api request failed", "exam", t.Name, "status", status, "error", err)
	writeJSON(w, status, apiError{
		Error:   err.Error(),
		Message: appI18n.Td(r.Context(), msgID, map[string]any{"Exam": t.Title}),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
