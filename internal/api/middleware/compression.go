package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compression gzips responses for clients that accept it. Small bodies are
// sent as-is.
func Compression(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
