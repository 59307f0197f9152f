// Package client implements a minimal HTTP/1.1 client over pooled raw
// connections.
//
// Features:
//   - Persistent connections (keep-alive) via the transport pool
//   - Redirect following with a fixed budget
//   - Content-Length, chunked transfer and read-to-close body framing
//   - gzip content decoding (klauspost/compress)
//   - Charset negotiation: Content-Type parameter, chardet fallback,
//     conversion through x/net/html/charset
//   - Response caching honoring Cache-Control max-age and no-store
//
// Error taxonomy:
//   - *NetworkError: refused/reset connections, truncated bodies,
//     decompression failures; never retried
//   - ErrTooManyRedirects: redirect budget exhausted
//   - *BadStatusError: 4xx/5xx, carrying the error-page Document
package client
