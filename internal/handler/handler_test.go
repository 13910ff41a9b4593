package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/anskey/internal/exam"
	appI18n "github.com/pavelanni/anskey/internal/i18n"
	"github.com/pavelanni/anskey/internal/loader"
	"github.com/pavelanni/anskey/internal/model"
	"github.com/pavelanni/anskey/internal/testutil"
)

const (
	goodURL    = "https://ssc.ssccbt.com/good"
	blockedURL = "https://ssc.ssccbt.com/blocked"
	junkURL    = "https://ssc.ssccbt.com/junk"
	token      = "test-token"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupRouter(t *testing.T, maxUpload int64) (http.Handler, string) {
	t.Helper()
	legacy := testutil.LegacyPage(testutil.DefaultCandidate, "green", "green", "green", "red", "red", "gray")
	fetcher := loader.FetcherFunc(func(_ context.Context, u string) (string, error) {
		switch u {
		case goodURL:
			return legacy, nil
		case junkURL:
			return "<html><body><p>nothing here</p></body></html>", nil
		default:
			return "", errors.New("blocked")
		}
	})
	dir := t.TempDir()
	h, err := New(exam.New(loader.New(fetcher)), model.ServerConfig{UploadDir: dir, MaxUpload: maxUpload})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.Use(h.BasePathMiddleware)
	h.Routes(r)
	return r, dir
}

func postForm(t *testing.T, router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	form.Set("csrf_token", token)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("ans_key_file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, router http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{"csrf_token": token}, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIndexPages(t *testing.T) {
	router, _ := setupRouter(t, 0)
	tests := []struct {
		path  string
		title string
	}{
		{"/", "SSC MTS"},
		{"/ssc-je", "SSC JE"},
		{"/chsl", "SSC CHSL"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "Calculate your "+tt.title+" score") {
				t.Errorf("page missing heading for %s", tt.title)
			}
			var csrf *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == csrfCookieName {
					csrf = c
				}
			}
			if csrf == nil || csrf.Value == "" {
				t.Fatal("expected csrf cookie")
			}
			if !strings.Contains(body, `value="`+csrf.Value+`"`) {
				t.Error("form does not carry the csrf token")
			}
		})
	}
}

func TestSubmitURL(t *testing.T) {
	router, _ := setupRouter(t, 0)
	rec := postForm(t, router, "/chsl", url.Values{"ans_key_url": {goodURL}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Asha Verma", "Overall Paper", "5.00", "6 questions evaluated."} {
		if !strings.Contains(body, want) {
			t.Errorf("result page missing %q", want)
		}
	}
}

func TestSubmitUpload(t *testing.T) {
	router, dir := setupRouter(t, 0)
	page := testutil.ModernPage(testutil.DefaultCandidate, testutil.LabelSpan, testutil.Group{
		{Name: "Reasoning", Panels: testutil.Repeat("RS", 1000, 4, testutil.Panel{Chosen: "1", Correct: "1)"})},
	})
	rec := postUpload(t, router, "/ssc-je", "key.HTML", page)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "4.00") {
		t.Error("result page missing total marks")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload was not removed: %v", entries)
	}
}

func TestSubmitFailures(t *testing.T) {
	router, _ := setupRouter(t, 0)

	tests := []struct {
		name   string
		do     func() *httptest.ResponseRecorder
		status int
		msg    string
	}{
		{
			name:   "empty form",
			do:     func() *httptest.ResponseRecorder { return postForm(t, router, "/", url.Values{}) },
			status: http.StatusBadRequest,
			msg:    "Please provide an answer key URL",
		},
		{
			name:   "empty multipart",
			do:     func() *httptest.ResponseRecorder { return postUpload(t, router, "/", "", "") },
			status: http.StatusBadRequest,
			msg:    "Please provide an answer key URL",
		},
		{
			name:   "wrong extension",
			do:     func() *httptest.ResponseRecorder { return postUpload(t, router, "/", "key.pdf", "%PDF") },
			status: http.StatusBadRequest,
			msg:    "Only .html or .htm files",
		},
		{
			name: "fetch failure",
			do: func() *httptest.ResponseRecorder {
				return postForm(t, router, "/chsl", url.Values{"ans_key_url": {blockedURL}})
			},
			status: http.StatusBadGateway,
			msg:    "could not be downloaded",
		},
		{
			name: "not an answer key",
			do: func() *httptest.ResponseRecorder {
				return postForm(t, router, "/", url.Values{"ans_key_url": {junkURL}})
			},
			status: http.StatusUnprocessableEntity,
			msg:    "does not look like an SSC MTS answer key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.do()
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.msg) {
				t.Errorf("body missing %q", tt.msg)
			}
			if !strings.Contains(rec.Body.String(), "<form") {
				t.Error("failure should render the form again")
			}
		})
	}
}

func TestSubmitRequiresCSRF(t *testing.T) {
	router, _ := setupRouter(t, 0)

	form := url.Values{"ans_key_url": {goodURL}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("missing token: status = %d, want 403", rec.Code)
	}

	form.Set("csrf_token", "other")
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("mismatched token: status = %d, want 403", rec.Code)
	}
}

func TestSubmitTooLarge(t *testing.T) {
	router, _ := setupRouter(t, 64)
	rec := postForm(t, router, "/", url.Values{"ans_key_url": {goodURL + strings.Repeat("x", 200)}})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestAPIScore(t *testing.T) {
	router, _ := setupRouter(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/score/chsl", strings.NewReader(`{"url":"`+goodURL+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res model.ExamResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ExamType != "chsl" || res.Format != model.FormatLegacy || res.Summary.TotalMarks != 5 {
		t.Errorf("result = %+v", res)
	}
	if len(res.QuestionWise) != 6 {
		t.Errorf("question-wise has %d entries, want 6", len(res.QuestionWise))
	}
}

func TestAPIScoreUpload(t *testing.T) {
	router, _ := setupRouter(t, 0)
	page := testutil.LegacyPage(testutil.DefaultCandidate, "green", "red")
	body, ct := multipartBody(t, nil, "key.htm", page)

	req := httptest.NewRequest(http.MethodPost, "/api/score/CHSL", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total_marks": 1.5`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestAPIScoreErrors(t *testing.T) {
	router, _ := setupRouter(t, 0)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown exam", "/api/score/cgl", `{"url":"` + goodURL + `"}`, http.StatusNotFound},
		{"missing url", "/api/score/mts", `{}`, http.StatusBadRequest},
		{"empty body", "/api/score/mts", ``, http.StatusBadRequest},
		{"invalid json", "/api/score/mts", `{"url":`, http.StatusBadRequest},
		{"fetch failure", "/api/score/je", `{"url":"` + blockedURL + `"}`, http.StatusBadGateway},
		{"structure", "/api/score/je", `{"url":"` + junkURL + `"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			var e apiError
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Error == "" {
				t.Errorf("expected json error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestAPIExams(t *testing.T) {
	router, _ := setupRouter(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/api/exams", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var got []apiExam
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 || got[0].Name != "mts" || got[2].Negative != 0.5 {
		t.Errorf("exams = %+v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errMissingInput, http.StatusBadRequest},
		{&model.FetchError{URL: "u", Err: errors.New("x")}, http.StatusBadGateway},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrStructureNotFound, http.StatusUnprocessableEntity},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
