// internal/handlers/utils.go
package handlers

import "strings"

// extractCookieToken pulls one cookie's value out of a raw Cookie header.
// Returns "" when the cookie is absent. Kept header-based rather than using
// http.Request.Cookie so websocket upgrades and plain handlers share one path.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	value := parts[1]
	if idx := strings.Index(value, ";"); idx != -1 {
		value = value[:idx]
	}
	return value
}
