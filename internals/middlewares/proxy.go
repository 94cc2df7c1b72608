package middlewares

import "github.com/gofiber/fiber/v2"

// TrustProxies lets c.IP() read X-Forwarded-For, but only for requests whose
// peer matches one of the given IPs or CIDRs. With no proxies the header is ignored.
func TrustProxies(cfg *fiber.Config, proxies []string) {
	if len(proxies) == 0 {
		return
	}
	cfg.ProxyHeader = fiber.HeaderXForwardedFor
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = proxies
	// pick the first valid hop instead of the raw header
	cfg.EnableIPValidation = true
}
