package fetcher

// Desktop Chrome header set. Many sites reject requests that do not look
// like a mainstream browser.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9,es;q=0.8"
	acceptEncoding = "gzip, deflate, zstd"
	referer        = "https://www.google.com/"
)

// BrowserHeaders returns the headers sent with every fetch
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    acceptHTML,
		"Accept-Language":           acceptLanguage,
		"Accept-Encoding":           acceptEncoding,
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "cross-site",
		"Sec-Fetch-User":            "?1",
		"Referer":                   referer,
	}
}
