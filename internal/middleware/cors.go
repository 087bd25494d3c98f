package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, " + SessionHeader
	corsMaxAge       = "86400"
)

// NewCORSMiddleware はクレデンシャル付きのCORSミドルウェアを返す。
//
// allowedOriginsはカンマ区切りのオリジン一覧で、"*"を含む場合は任意のオリジンを許可する。
// クレデンシャルと"*"は併用できないため、許可したオリジンはリクエストのOriginをそのまま返す。
// 一覧に無いOriginには先頭のオリジンを返し、ブラウザ側で拒否させる。
// OPTIONSプリフライトは後続に渡さず204で応答する。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins, wildcard := parseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", allowOrigin(r.Header.Get("Origin"), origins, wildcard))
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", corsMaxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(raw string) (origins []string, wildcard bool) {
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		wildcard = true
	}
	return origins, wildcard
}

func allowOrigin(requestOrigin string, origins []string, wildcard bool) string {
	if requestOrigin != "" {
		if wildcard {
			return requestOrigin
		}
		for _, o := range origins {
			if strings.EqualFold(o, requestOrigin) {
				return requestOrigin
			}
		}
	}
	if len(origins) > 0 {
		return origins[0]
	}
	return "*"
}
