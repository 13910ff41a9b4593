package handler

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/anskey/internal/exam"
	"github.com/pavelanni/anskey/internal/loader"
	"github.com/pavelanni/anskey/internal/model"
)

func TestSitemap(t *testing.T) {
	tests := []struct {
		name     string
		cfg      model.ServerConfig
		forwards string
		want     []string
	}{
		{
			name: "derived from request",
			want: []string{"http://example.com/", "http://example.com/ssc-je", "http://example.com/chsl"},
		},
		{
			name:     "forwarded https with base path",
			cfg:      model.ServerConfig{BasePath: "/ssc"},
			forwards: "https",
			want:     []string{"https://example.com/ssc/", "https://example.com/ssc/ssc-je", "https://example.com/ssc/chsl"},
		},
		{
			name: "configured public url",
			cfg:  model.ServerConfig{PublicURL: "https://marks.example.org/"},
			want: []string{"https://marks.example.org/", "https://marks.example.org/ssc-je", "https://marks.example.org/chsl"},
		},
	}
	date := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(exam.New(loader.New(nil)), tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			r := chi.NewRouter()
			r.Use(h.BasePathMiddleware)
			h.Routes(r)

			req := httptest.NewRequest(http.MethodGet, "http://example.com/sitemap.xml", nil)
			if tt.forwards != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwards)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
				t.Errorf("content type = %q", ct)
			}
			if !strings.HasPrefix(rec.Body.String(), xml.Header) {
				t.Error("missing xml declaration")
			}

			var got urlSet
			if err := xml.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid sitemap: %v", err)
			}
			if got.NS != sitemapNS {
				t.Errorf("xmlns = %q", got.NS)
			}
			if len(got.URLs) != len(tt.want) {
				t.Fatalf("got %d urls, want %d", len(got.URLs), len(tt.want))
			}
			for i, u := range got.URLs {
				if u.Loc != tt.want[i] {
					t.Errorf("url %d loc = %q, want %q", i, u.Loc, tt.want[i])
				}
				if !date.MatchString(u.LastMod) {
					t.Errorf("url %d lastmod = %q", i, u.LastMod)
				}
			}
			if got.URLs[0].Priority != "1.0" || got.URLs[0].ChangeFreq != "weekly" {
				t.Errorf("home entry = %+v", got.URLs[0])
			}
			if got.URLs[2].Priority != "0.8" || got.URLs[2].ChangeFreq != "monthly" {
				t.Errorf("chsl entry = %+v", got.URLs[2])
			}
		})
	}
}
