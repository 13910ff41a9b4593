package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "SSC Answer Key Calculator" {
		t.Errorf("T(AppTitle) = %q, want 'SSC Answer Key Calculator'", got)
	}

	got = T(ctx, "Calculate")
	if got != "Calculate score" {
		t.Errorf("T(Calculate) = %q, want 'Calculate score'", got)
	}
}

func TestTranslateHindi(t *testing.T) {
	ctx := initLang(t, "hi")

	got := T(ctx, "TotalMarks")
	if got != "कुल अंक" {
		t.Errorf("T(TotalMarks) = %q, want 'कुल अंक'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsEvaluated", 1)
	if got1 != "1 question evaluated." {
		t.Errorf("Tp(QuestionsEvaluated, 1) = %q, want '1 question evaluated.'", got1)
	}

	got5 := Tp(ctx, "QuestionsEvaluated", 5)
	if got5 != "5 questions evaluated." {
		t.Errorf("Tp(QuestionsEvaluated, 5) = %q, want '5 questions evaluated.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ErrProcessFailed", map[string]any{"Exam": "SSC CHSL"})
	if got != "Failed to process the SSC CHSL answer key." {
		t.Errorf("Td(ErrProcessFailed) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestUnsupportedLanguageFallsBack(t *testing.T) {
	ctx := initLang(t, "fr")

	if got := T(ctx, "Calculate"); got != "Calculate score" {
		t.Errorf("T(Calculate) = %q, want English fallback", got)
	}
}

func TestLanguages(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	langs := Languages()
	for _, want := range []string{"en", "hi"} {
		if !slices.Contains(langs, want) {
			t.Errorf("Languages() = %v, missing %q", langs, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var got string
	h := Middleware("en")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "TotalMarks")
	}))

	tests := []struct {
		name   string
		target string
		header string
		cookie string
		want   string
	}{
		{"default", "/", "", "", "Total marks"},
		{"accept-language", "/", "hi-IN,hi;q=0.9", "", "कुल अंक"},
		{"query wins", "/?lang=en", "hi", "", "Total marks"},
		{"cookie", "/", "", "hi", "कुल अंक"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got != tt.want {
				t.Errorf("T(TotalMarks) = %q, want %q", got, tt.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/?lang=hi", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookie || cookies[0].Value != "hi" {
		t.Errorf("expected lang cookie, got %v", cookies)
	}
}
