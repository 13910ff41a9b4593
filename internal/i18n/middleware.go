package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

// LangCookie remembers an explicit language choice.
const LangCookie = "lang"

// Middleware injects a localizer into every request context. An explicit
// ?lang= choice wins and is remembered in a cookie, then the cookie, then
// Accept-Language, then defaultLang.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var langs []string
			if tag, err := language.Parse(r.URL.Query().Get("lang")); err == nil {
				langs = append(langs, tag.String())
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    tag.String(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(LangCookie); err == nil {
				langs = append(langs, c.Value)
			}
			langs = append(langs, r.Header.Get("Accept-Language"), defaultLang)
			ctx := WithLocalizer(r.Context(), NewLocalizer(langs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
