package transport

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/GriffinCanCode/BabyBrowser/internal/logging"
	"go.uber.org/zap"
)

type connKey struct {
	host   string
	port   int
	secure bool
}

// Conn is an open transport channel owned by the Pool. The HTTP client
// borrows it for one request/response exchange and must hand it back with
// Release.
type Conn struct {
	key     connKey
	netConn net.Conn

	// Reader buffers response bytes. It must be used for all reads so
	// buffered data is not lost across exchanges on the same connection.
	Reader *bufio.Reader

	// Reused is true when the connection came from the idle pool rather
	// than a fresh dial.
	Reused bool
}

// Write sends request bytes to the peer.
func (c *Conn) Write(p []byte) (int, error) {
	return c.netConn.Write(p)
}

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.netConn.Close()
}

// Pool caches at most one idle connection per (host, port, secure) key.
// A second Acquire for a key whose connection is checked out dials a fresh
// connection instead of blocking.
type Pool struct {
	mu   sync.Mutex
	idle map[connKey]*Conn

	dialTimeout time.Duration
	log         *logging.Logger
}

// NewPool creates an empty connection pool.
func NewPool(dialTimeout time.Duration, log *logging.Logger) *Pool {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pool{
		idle:        make(map[connKey]*Conn),
		dialTimeout: dialTimeout,
		log:         log,
	}
}

// Acquire returns a connection to the given endpoint, reusing an idle
// keep-alive connection when one is parked for the key.
func (p *Pool) Acquire(host string, port int, secure bool) (*Conn, error) {
	key := connKey{host: host, port: port, secure: secure}

	p.mu.Lock()
	if conn, ok := p.idle[key]; ok {
		delete(p.idle, key)
		p.mu.Unlock()
		conn.Reused = true
		p.log.Debug("reusing connection", zap.String("host", host), zap.Int("port", port))
		return conn, nil
	}
	p.mu.Unlock()

	return p.dial(key)
}

// Release returns a borrowed connection. With keepAlive false, or when an
// idle connection is already parked for the key, the connection is closed
// and evicted.
func (p *Pool) Release(conn *Conn, keepAlive bool) {
	if conn == nil {
		return
	}
	if !keepAlive {
		conn.Close()
		return
	}

	p.mu.Lock()
	_, occupied := p.idle[conn.key]
	if !occupied {
		conn.Reused = false
		p.idle[conn.key] = conn
	}
	p.mu.Unlock()

	if occupied {
		conn.Close()
	}
}

// Close closes every idle connection. Borrowed connections are unaffected.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, conn := range p.idle {
		conn.Close()
		delete(p.idle, key)
	}
}

func (p *Pool) dial(key connKey) (*Conn, error) {
	target := net.JoinHostPort(key.host, fmt.Sprint(key.port))
	dialer := &net.Dialer{Timeout: p.dialTimeout}

	var netConn net.Conn
	var err error
	if key.secure {
		netConn, err = tls.DialWithDialer(dialer, "tcp", target, &tls.Config{
			ServerName: key.host,
		})
	} else {
		netConn, err = dialer.Dial("tcp", target)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	p.log.Debug("opened connection",
		zap.String("host", key.host),
		zap.Int("port", key.port),
		zap.Bool("secure", key.secure))

	return &Conn{
		key:     key,
		netConn: netConn,
		Reader:  bufio.NewReader(netConn),
	}, nil
}
