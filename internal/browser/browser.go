package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GriffinCanCode/BabyBrowser/internal/config"
	"github.com/GriffinCanCode/BabyBrowser/internal/logging"
	"github.com/GriffinCanCode/BabyBrowser/internal/monitoring"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/address"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/cache"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/client"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/content"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/layout"
	"github.com/GriffinCanCode/BabyBrowser/internal/web/transport"
	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Browser owns the page-acquisition pipeline: resolver, connection pool,
// response cache, HTTP client, decoder and layout engine. It exposes the
// two core operations a host needs: Fetch and Layout.
type Browser struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics
	pool    *transport.Pool
	store   *cache.Store
	client  *client.Client
	engine  layout.Engine
}

// Page is a fetched document decoded into layout-ready tokens.
type Page struct {
	Doc    *client.Document
	Title  string
	Tokens []content.Token
}

// New wires up a browser. All shared state (connection pool, response
// cache) is constructed here and injectable nowhere else, so every Browser
// is fully isolated.
func New(cfg *config.Config, log *logging.Logger) *Browser {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewNop()
	}

	metrics := monitoring.New()
	pool := transport.NewPool(cfg.HTTP.DialTimeout, log)
	store := cache.NewStore()

	return &Browser{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		pool:    pool,
		store:   store,
		client:  client.New(cfg.HTTP, pool, store, log, metrics),
		engine:  layout.NewEngine(cfg.Layout.HStep, cfg.Layout.VStep),
	}
}

// Close releases pooled connections.
func (b *Browser) Close() {
	b.pool.Close()
}

// Metrics exposes the browser's metrics registry.
func (b *Browser) Metrics() *monitoring.Metrics {
	return b.metrics
}

// Engine exposes the layout engine so hosts can project scroll state.
func (b *Browser) Engine() layout.Engine {
	return b.engine
}

// Fetch retrieves the resource behind a raw URL. file: and data: addresses
// are read without network I/O; view-source: wraps the inner fetch and
// marks the document for literal display.
func (b *Browser) Fetch(ctx context.Context, raw string) (*client.Document, error) {
	addr, err := address.Parse(raw)
	if err != nil {
		return nil, err
	}
	return b.fetch(ctx, addr)
}

func (b *Browser) fetch(ctx context.Context, addr address.Address) (*client.Document, error) {
	switch addr.Scheme {
	case address.SchemeHTTP, address.SchemeHTTPS:
		return b.client.Get(ctx, addr, b.cfg.HTTP.RedirectBudget)

	case address.SchemeFile:
		return b.fetchFile(addr)

	case address.SchemeData:
		return b.fetchData(addr)

	case address.SchemeViewSource:
		inner, err := b.fetch(ctx, *addr.Inner)
		if inner == nil {
			return nil, err
		}
		final := inner.URL
		inner.URL = address.Address{Scheme: address.SchemeViewSource, Inner: &final}
		inner.ViewSource = true
		return inner, err

	default:
		return nil, &address.MalformedURLError{URL: addr.String(), Reason: "unsupported scheme"}
	}
}

// fetchFile reads a local file into a document. The content type is
// sniffed from the bytes; charset negotiation is a fixed UTF-8 default.
func (b *Browser) fetchFile(addr address.Address) (*client.Document, error) {
	data, err := os.ReadFile(addr.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", addr.Path, err)
	}

	b.log.Debug("loaded file", zap.String("path", addr.Path), zap.Int("bytes", len(data)))

	return &client.Document{
		URL:         addr,
		Status:      200,
		ContentType: mimetype.Detect(data).String(),
		Charset:     "utf-8",
		Raw:         data,
		Text:        string(data),
	}, nil
}

// fetchData materializes a data: payload. The payload is taken literally
// unless the mediatype declares base64.
func (b *Browser) fetchData(addr address.Address) (*client.Document, error) {
	mediaType := addr.MediaType
	payload := []byte(addr.Payload)

	if encoded, ok := strings.CutSuffix(mediaType, ";base64"); ok {
		mediaType = encoded
		decoded, err := base64.StdEncoding.DecodeString(addr.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL payload: %w", err)
		}
		payload = decoded
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	return &client.Document{
		URL:         addr,
		Status:      200,
		ContentType: mediaType,
		Charset:     "utf-8",
		Raw:         payload,
		Text:        string(payload),
	}, nil
}

// Load fetches a page and decodes it into tokens ready for layout. On a
// 4xx/5xx status the error-page document is still decoded and returned
// alongside the *client.BadStatusError so the host can render it.
func (b *Browser) Load(ctx context.Context, raw string) (*Page, error) {
	doc, err := b.Fetch(ctx, raw)
	if err != nil {
		var badStatus *client.BadStatusError
		if !errors.As(err, &badStatus) {
			return nil, err
		}
		doc = badStatus.Doc
	}

	page := &Page{
		Doc:    doc,
		Title:  pageTitle(doc),
		Tokens: content.Decode(doc.Text, doc.IsHTML()),
	}
	return page, err
}

// Layout wraps the page tokens at the given viewport width.
func (b *Browser) Layout(page *Page, width int) []layout.DisplayLine {
	return b.engine.Layout(page.Tokens, width)
}

// pageTitle extracts the document title, falling back to the host or URL.
func pageTitle(doc *client.Document) string {
	if doc.IsHTML() {
		parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Text))
		if err == nil {
			if title := strings.TrimSpace(parsed.Find("title").First().Text()); title != "" {
				return title
			}
		}
	}
	if doc.URL.Host != "" {
		return doc.URL.Host
	}
	return doc.URL.String()
}
