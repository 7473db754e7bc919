package caching

import (
	"net/http"
	"time"
)

// ShouldReturnNotModified reports whether the validator a client sent in
// If-None-Match still identifies the server's current representation.
// Validators match when they are byte-identical, or identical once one
// layer of surrounding double quotes is removed from each side.
func ShouldReturnNotModified(clientValidator, serverValidator string) bool {
	if clientValidator == "" {
		return false
	}
	if clientValidator == serverValidator {
		return true
	}
	return unquote(clientValidator) == unquote(serverValidator)
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// HTTPDate formats t as an IMF-fixdate for Last-Modified.
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
