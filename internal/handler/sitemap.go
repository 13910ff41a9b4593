package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// publicRoot is the absolute URL the exam page paths are appended to.
func (h *Handler) publicRoot(r *http.Request) string {
	if h.config.PublicURL != "" {
		return strings.TrimRight(h.config.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + h.config.BasePath
}

func (h *Handler) handleSitemap(w http.ResponseWriter, r *http.Request) {
	root := h.publicRoot(r)
	today := time.Now().UTC().Format(time.DateOnly)

	set := urlSet{NS: sitemapNS}
	for i, p := range pages {
		u := sitemapURL{Loc: root + p.view.Path, LastMod: today, ChangeFreq: "monthly", Priority: "0.8"}
		if i == 0 {
			u.ChangeFreq, u.Priority = "weekly", "1.0"
		}
		set.URLs = append(set.URLs, u)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		slog.Error("failed to encode sitemap", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
