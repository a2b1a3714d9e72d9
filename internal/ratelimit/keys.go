package ratelimit

import (
	"net/http"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

// KeyByClientIP derives the limit key from the caller's IP address,
// prefixed with the protected route group. Used on the public quote
// endpoint where no authenticated identity exists.
func KeyByClientIP(group string) func(*http.Request) string {
	return func(r *http.Request) string {
		ip := common.ClientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return group + ":" + ip
	}
}
