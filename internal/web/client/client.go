package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/BabyBrowser/internal/config"
	"github.com/GriffinCanCode/BabyBrowser/internal/logging"
	"github.com/GriffinCanCode/BabyBrowser/internal/monitoring"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/address"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/cache"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/transport"
	"go.uber.org/zap"
)

// Client issues HTTP/1.1 requests over pooled connections. One request is
// in flight per borrowed connection; concurrent fetches to the same host
// each dial their own connection rather than contend.
type Client struct {
	cfg     config.HTTPConfig
	pool    *transport.Pool
	store   *cache.Store
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a client over the given connection pool and response cache.
// The store may be nil to disable caching entirely.
func New(cfg config.HTTPConfig, pool *transport.Pool, store *cache.Store, log *logging.Logger, metrics *monitoring.Metrics) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.New()
	}
	return &Client{cfg: cfg, pool: pool, store: store, log: log, metrics: metrics}
}

// Get fetches the address, following up to budget redirects. A fresh cached
// response is served without network I/O. For 4xx/5xx statuses the returned
// error is a *BadStatusError that carries the error-page Document; the
// Document is also returned so hosts can render it.
func (c *Client) Get(ctx context.Context, addr address.Address, budget int) (*Document, error) {
	if addr.Scheme != address.SchemeHTTP && addr.Scheme != address.SchemeHTTPS {
		return nil, fmt.Errorf("client: unsupported scheme %q", addr.Scheme)
	}

	doc, err := c.get(ctx, addr, budget)
	if err != nil || doc == nil {
		return doc, err
	}

	// After a redirect chain the response is stored under its final URL.
	// Alias it under the requested URL too, so refetching the original
	// address within the freshness window needs no network I/O.
	if c.caching() && doc.URL.String() != addr.String() {
		if entry, ok := c.store.Lookup(doc.URL); ok {
			c.store.Put(addr, entry)
		}
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, addr address.Address, budget int) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.caching() {
		if entry, ok := c.store.Lookup(addr); ok {
			c.metrics.CacheHits.Inc()
			c.log.Debug("cache hit", zap.String("url", addr.String()))
			return documentFromEntry(addr, entry), nil
		}
		c.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	status, headers, body, err := c.exchange(addr)
	if err != nil {
		return nil, err
	}
	c.metrics.FetchDuration.WithLabelValues(string(addr.Scheme)).Observe(time.Since(start).Seconds())
	c.metrics.FetchesTotal.WithLabelValues(string(addr.Scheme), strconv.Itoa(status)).Inc()

	if status >= 300 && status < 400 {
		location, ok := headers["location"]
		if !ok {
			return nil, netErr("redirect", addr.String(), fmt.Errorf("status %d without location", status))
		}
		if budget <= 0 {
			return nil, ErrTooManyRedirects
		}
		target, err := addr.Resolve(location)
		if err != nil {
			return nil, fmt.Errorf("client: bad redirect target %q: %w", location, err)
		}
		c.metrics.RedirectsFollowed.Inc()
		c.log.Debug("following redirect",
			zap.String("from", addr.String()),
			zap.String("to", target.String()),
			zap.Int("budget", budget-1))
		return c.get(ctx, target, budget-1)
	}

	c.metrics.BytesDecoded.Add(float64(len(body)))

	mediaType, label := splitContentType(headers["content-type"])
	text, used := decodeText(body, label)

	doc := &Document{
		URL:         addr,
		Status:      status,
		ContentType: mediaType,
		Charset:     used,
		Raw:         body,
		Text:        text,
	}

	if status == 200 && c.caching() {
		if maxAge, ok := cache.Freshness(headers["cache-control"]); ok {
			c.store.Put(addr, &cache.Entry{
				Status:  status,
				Headers: headers,
				Body:    body,
				MaxAge:  maxAge,
			})
			c.log.Debug("stored response",
				zap.String("url", addr.String()),
				zap.Duration("max_age", maxAge))
		}
	}

	if status >= 400 {
		return doc, &BadStatusError{Status: status, URL: addr.String(), Doc: doc}
	}
	return doc, nil
}

// exchange performs one request/response round trip on a pooled connection
// and returns the status, lower-cased headers and the body after transfer
// and content decoding.
func (c *Client) exchange(addr address.Address) (int, map[string]string, []byte, error) {
	conn, err := c.pool.Acquire(addr.Host, addr.Port, addr.Secure())
	if err != nil {
		return 0, nil, nil, netErr("connect", addr.String(), err)
	}
	if conn.Reused {
		c.metrics.ConnsReused.Inc()
	} else {
		c.metrics.ConnsOpened.Inc()
	}

	if _, err := conn.Write(c.buildRequest(addr)); err != nil {
		c.pool.Release(conn, false)
		return 0, nil, nil, netErr("send", addr.String(), err)
	}

	sl, err := readStatusLine(conn.Reader)
	if err != nil {
		c.pool.Release(conn, false)
		return 0, nil, nil, netErr("read status", addr.String(), err)
	}
	headers, err := readHeaders(conn.Reader)
	if err != nil {
		c.pool.Release(conn, false)
		return 0, nil, nil, netErr("read headers", addr.String(), err)
	}
	body, reusable, err := readBody(conn.Reader, headers)
	if err != nil {
		c.pool.Release(conn, false)
		return 0, nil, nil, netErr("read body", addr.String(), err)
	}

	c.pool.Release(conn, keepAlive(sl, headers, reusable))

	switch encoding := strings.ToLower(headers["content-encoding"]); encoding {
	case "", "identity":
	case "gzip":
		body, err = gunzip(body)
		if err != nil {
			return 0, nil, nil, netErr("decompress", addr.String(), err)
		}
	default:
		return 0, nil, nil, netErr("decompress", addr.String(),
			fmt.Errorf("unsupported content-encoding %q", encoding))
	}

	return sl.Status, headers, body, nil
}

// buildRequest serializes the HTTP/1.1 request head.
func (c *Client) buildRequest(addr address.Address) []byte {
	target := addr.Path
	if addr.Query != "" {
		target += "?" + addr.Query
	}

	host := addr.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]" // IPv6 literal
	}
	if addr.Port != 0 && addr.Port != address.DefaultPort(addr.Scheme) {
		host += ":" + strconv.Itoa(addr.Port)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", target)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Connection: keep-alive\r\n")
	fmt.Fprintf(&b, "User-Agent: %s\r\n", c.cfg.UserAgent)
	if c.cfg.EnableGzip {
		b.WriteString("Accept-Encoding: gzip\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (c *Client) caching() bool {
	return c.cfg.EnableCache && c.store != nil
}

// keepAlive decides whether the connection goes back to the pool. A body
// delimited by connection close, an explicit Connection: close, or an
// HTTP/1.0 peer without opt-in all evict it.
func keepAlive(sl statusLine, headers map[string]string, reusable bool) bool {
	if !reusable {
		return false
	}
	connection := strings.ToLower(headers["connection"])
	if connection == "close" {
		return false
	}
	if sl.Proto == "HTTP/1.0" && connection != "keep-alive" {
		return false
	}
	return true
}

// documentFromEntry rebuilds a Document from a cached response.
func documentFromEntry(addr address.Address, entry *cache.Entry) *Document {
	mediaType, label := splitContentType(entry.Headers["content-type"])
	text, used := decodeText(entry.Body, label)
	return &Document{
		URL:         addr,
		Status:      entry.Status,
		ContentType: mediaType,
		Charset:     used,
		Raw:         entry.Body,
		Text:        text,
	}
}
