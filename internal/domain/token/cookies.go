package token

import (
	"encoding/json"
	"strings"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/bytedance/sonic"
)

// ParseCookieString turns "a=1; b=2" into cookies scoped to domain.
// Each pair is split at its first '='; pairs missing a name or value are
// skipped.
func ParseCookieString(raw, domain string) []browser.Cookie {
	cookies := []browser.Cookie{}
	for _, pair := range strings.Split(raw, ";") {
		name, value, _ := strings.Cut(strings.TrimSpace(pair), "=")
		name = strings.TrimSpace(name)
		if name == "" || value == "" {
			continue
		}
		cookies = append(cookies, browser.Cookie{
			Name:   name,
			Value:  value,
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}

// DecodeCookieArray decodes a JSON array of cookie objects. Elements that
// are not objects or have no name are skipped and counted in dropped.
// Cookies with neither domain nor url get domain; a missing path becomes "/".
func DecodeCookieArray(items []json.RawMessage, domain string) (cookies []browser.Cookie, dropped int) {
	cookies = make([]browser.Cookie, 0, len(items))
	for _, item := range items {
		var c browser.Cookie
		if err := sonic.Unmarshal(item, &c); err != nil || c.Name == "" {
			dropped++
			continue
		}
		if c.Domain == "" && c.URL == "" {
			c.Domain = domain
		}
		if c.Path == "" {
			c.Path = "/"
		}
		if c.Expires < 0 {
			c.Expires = 0
		}
		cookies = append(cookies, c)
	}
	return cookies, dropped
}

// CookieHeader renders cookies as a Cookie request header value
func CookieHeader(cookies []browser.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
