package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/BabyBrowser/internal/config"
	"github.com/GriffinCanCode/BabyBrowser/internal/monitoring"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/address"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/cache"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/transport"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer speaks scripted HTTP/1.1 over real TCP, serving keep-alive
// connections so connection reuse is observable.
type testServer struct {
	ln     net.Listener
	mu     sync.Mutex
	hits   int
	routes map[string]string
}

func newTestServer(t *testing.T, routes map[string]string) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &testServer{ln: ln, routes: routes}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *testServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *testServer) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		requestLine, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" || line == "\n" {
				break
			}
		}

		parts := strings.Split(requestLine, " ")
		if len(parts) < 2 {
			return
		}
		path := parts[1]

		s.mu.Lock()
		s.hits++
		s.mu.Unlock()

		response, ok := s.routes[path]
		if !ok {
			response = "HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\n\r\nnot found"
		}
		if _, err := conn.Write([]byte(response)); err != nil {
			return
		}
		if strings.Contains(response, "Connection: close") {
			return
		}
	}
}

func (s *testServer) requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *testServer) url(path string) address.Address {
	host, portStr, _ := net.SplitHostPort(s.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return address.Address{Scheme: address.SchemeHTTP, Host: host, Port: port, Path: path}
}

func okResponse(body string, extraHeaders ...string) string {
	head := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n", len(body))
	for _, header := range extraHeaders {
		head += header + "\r\n"
	}
	return head + "\r\n" + body
}

func newClient(store *cache.Store, metrics *monitoring.Metrics) (*Client, *transport.Pool) {
	cfg := config.Default().HTTP
	pool := transport.NewPool(time.Second, nil)
	return New(cfg, pool, store, nil, metrics), pool
}

func TestGetSimple(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("hello world", "Content-Type: text/plain; charset=utf-8"),
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, 200, doc.Status)
	assert.Equal(t, "hello world", doc.Text)
	assert.Equal(t, "text/plain", doc.ContentType)
	assert.Equal(t, "utf-8", doc.Charset)
}

func TestGetReusesConnection(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("hi"),
	})
	metrics := monitoring.New()
	c, pool := newClient(nil, metrics)
	defer pool.Close()

	ctx := context.Background()
	_, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	_, err = c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ConnsOpened))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ConnsReused))
}

func TestGetConnectionCloseEvicts(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("bye", "Connection: close"),
	})
	metrics := monitoring.New()
	c, pool := newClient(nil, metrics)
	defer pool.Close()

	ctx := context.Background()
	_, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	_, err = c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ConnsOpened))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ConnsReused))
}

func TestGetChunked(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/chunked": "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"5\r\nHello\r\n6\r\n World\r\n0\r\n\r\n",
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/chunked"), 10)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", doc.Text)
}

func TestGetGzip(t *testing.T) {
	var compressed bytes.Buffer
	writer := gzip.NewWriter(&compressed)
	_, err := writer.Write([]byte("uncompressed text"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	body := compressed.String()
	server := newTestServer(t, map[string]string{
		"/gz": fmt.Sprintf(
			"HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\nContent-Length: %d\r\n\r\n%s",
			len(body), body),
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/gz"), 10)
	require.NoError(t, err)
	assert.Equal(t, "uncompressed text", doc.Text)
}

func TestGetCorruptGzipIsNetworkError(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/bad": okResponse("this is not gzip", "Content-Encoding: gzip"),
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	_, err := c.Get(context.Background(), server.url("/bad"), 10)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestGetCharsetLatin1(t *testing.T) {
	body := "caf\xe9" // 0xE9 is é in latin1
	server := newTestServer(t, map[string]string{
		"/latin": okResponse(body, "Content-Type: text/html; charset=latin1"),
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/latin"), 10)
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Text)
	assert.Equal(t, "latin1", doc.Charset)
}

func TestGetRedirectRelative(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/":           "HTTP/1.1 301 Moved Permanently\r\nLocation: /index.html\r\nContent-Length: 0\r\n\r\n",
		"/index.html": okResponse("landed"),
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/"), 10)
	require.NoError(t, err)
	assert.Equal(t, "landed", doc.Text)
	assert.Equal(t, "/index.html", doc.URL.Path)
}

func TestGetRedirectBudgetExhausted(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/loop": "HTTP/1.1 302 Found\r\nLocation: /loop\r\nContent-Length: 0\r\n\r\n",
	})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	_, err := c.Get(context.Background(), server.url("/loop"), 3)
	assert.ErrorIs(t, err, ErrTooManyRedirects)
	assert.Equal(t, 4, server.requests(), "initial request plus three redirects")
}

func TestGetBadStatusCarriesDocument(t *testing.T) {
	server := newTestServer(t, map[string]string{})
	c, pool := newClient(nil, nil)
	defer pool.Close()

	doc, err := c.Get(context.Background(), server.url("/missing"), 10)
	var badStatus *BadStatusError
	require.ErrorAs(t, err, &badStatus)

	assert.Equal(t, 404, badStatus.Status)
	require.NotNil(t, doc)
	assert.Equal(t, "not found", doc.Text)
}

func TestGetCachesFreshResponses(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("cached body", "Cache-Control: max-age=100"),
	})
	metrics := monitoring.New()
	c, pool := newClient(cache.NewStore(), metrics)
	defer pool.Close()

	ctx := context.Background()
	_, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	doc, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, "cached body", doc.Text)
	assert.Equal(t, 1, server.requests(), "second fetch is served from cache")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHits))
}

func TestGetNoStoreIsNotCached(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("volatile", "Cache-Control: max-age=100, no-store"),
	})
	c, pool := newClient(cache.NewStore(), nil)
	defer pool.Close()

	ctx := context.Background()
	_, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	_, err = c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, server.requests())
}

func TestGetCachingDisabledByConfig(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("body", "Cache-Control: max-age=100"),
	})
	cfg := config.Default().HTTP
	cfg.EnableCache = false
	pool := transport.NewPool(time.Second, nil)
	defer pool.Close()
	c := New(cfg, pool, cache.NewStore(), nil, nil)

	ctx := context.Background()
	_, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	_, err = c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, server.requests())
}

func TestGetGzipDisabledByConfig(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/": okResponse("plain"),
	})
	cfg := config.Default().HTTP
	cfg.EnableGzip = false
	pool := transport.NewPool(time.Second, nil)
	defer pool.Close()
	c := New(cfg, pool, nil, nil, nil)

	_, err := c.Get(context.Background(), server.url("/"), 10)
	require.NoError(t, err)
	// The request head must not advertise gzip support.
	assert.NotContains(t, string(c.buildRequest(server.url("/"))), "Accept-Encoding")
}

func TestRedirectThenCacheScenario(t *testing.T) {
	// http://host/ -> 301 /index.html -> 200 with max-age=100 and an
	// HTML entity in the body. Refetching the original URL within the
	// freshness window issues zero additional network requests.
	server := newTestServer(t, map[string]string{
		"/":           "HTTP/1.1 301 Moved Permanently\r\nLocation: /index.html\r\nContent-Length: 0\r\n\r\n",
		"/index.html": okResponse("Hi &amp; bye", "Cache-Control: max-age=100", "Content-Type: text/html"),
	})
	c, pool := newClient(cache.NewStore(), nil)
	defer pool.Close()

	ctx := context.Background()
	doc, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	assert.Equal(t, "/index.html", doc.URL.Path)
	assert.Equal(t, "Hi &amp; bye", doc.Text)
	before := server.requests()

	again, err := c.Get(ctx, server.url("/"), 10)
	require.NoError(t, err)
	assert.Equal(t, "Hi &amp; bye", again.Text)
	assert.Equal(t, before, server.requests(), "no network I/O on refetch")
}

func TestGetUnsupportedScheme(t *testing.T) {
	c, pool := newClient(nil, nil)
	defer pool.Close()

	_, err := c.Get(context.Background(), address.Address{Scheme: address.SchemeFile, Path: "/x"}, 10)
	assert.Error(t, err)
}

func TestGetConnectionRefused(t *testing.T) {
	c, pool := newClient(nil, nil)
	defer pool.Close()

	addr := address.Address{Scheme: address.SchemeHTTP, Host: "127.0.0.1", Port: 1, Path: "/"}
	_, err := c.Get(context.Background(), addr, 10)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}
