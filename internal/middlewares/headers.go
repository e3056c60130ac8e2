package middlewares

import (
	"net/http"

	"github.com/unrolled/secure"
)

var secureOptions = secure.Options{
	STSSeconds:              15552000,
	STSIncludeSubdomains:    true,
	ForceSTSHeader:          true,
	CustomFrameOptionsValue: "SAMEORIGIN",
	ContentTypeNosniff:      true,
	BrowserXssFilter:        true,
	CustomBrowserXssValue:   "0",
	ReferrerPolicy:          "no-referrer",
}

// isolationHeaders are the cross-origin and legacy headers secure does not set.
var isolationHeaders = map[string]string{
	"Cross-Origin-Opener-Policy":        "same-origin",
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Origin-Agent-Cluster":              "?1",
	"X-DNS-Prefetch-Control":            "off",
	"X-Download-Options":                "noopen",
	"X-Permitted-Cross-Domain-Policies": "none",
}

// SecurityHeaders sets the hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	isolated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range isolationHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
	return secure.New(secureOptions).Handler(isolated)
}

// StaticHeaders lets any origin embed the served files.
func StaticHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		next.ServeHTTP(w, r)
	})
}
