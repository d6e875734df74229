package server

import "strings"

// Addr normalizes a port value into a listen address.
func Addr(port string) string {
	p := strings.TrimSpace(port)
	if p == "" {
		p = "8080"
	}
	if strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}
