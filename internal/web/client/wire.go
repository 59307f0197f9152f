package client

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// statusLine is the parsed first line of an HTTP/1.x response.
type statusLine struct {
	Proto  string
	Status int
	Reason string
}

func readStatusLine(r *bufio.Reader) (statusLine, error) {
	line, err := readLine(r)
	if err != nil {
		return statusLine{}, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return statusLine{}, fmt.Errorf("malformed status line %q", line)
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return statusLine{}, fmt.Errorf("malformed status code in %q", line)
	}

	sl := statusLine{Proto: parts[0], Status: status}
	if len(parts) == 3 {
		sl.Reason = parts[2]
	}
	return sl, nil
}

// readHeaders reads header lines up to the blank line. Keys are lower-cased;
// a repeated key keeps the last value.
func readHeaders(r *bufio.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
}

// readBody reads the response body according to its framing: chunked
// transfer encoding, Content-Length, or read-to-close. It returns the body
// and whether the connection remains usable for another exchange.
func readBody(r *bufio.Reader, headers map[string]string) (body []byte, reusable bool, err error) {
	if strings.EqualFold(headers["transfer-encoding"], "chunked") {
		body, err = readChunked(r)
		return body, err == nil, err
	}

	if length, ok := headers["content-length"]; ok {
		n, convErr := strconv.ParseInt(length, 10, 64)
		if convErr != nil || n < 0 {
			return nil, false, fmt.Errorf("invalid content-length %q", length)
		}
		body = make([]byte, n)
		if _, err = io.ReadFull(r, body); err != nil {
			return nil, false, fmt.Errorf("truncated body: %w", err)
		}
		return body, true, nil
	}

	// No framing information: the server delimits the body by closing.
	body, err = io.ReadAll(r)
	return body, false, err
}

// readChunked decodes chunked transfer framing: hex-sized chunks terminated
// by a zero chunk and optional trailers.
func readChunked(r *bufio.Reader) ([]byte, error) {
	var body []byte
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("truncated chunk header: %w", err)
		}
		// Chunk extensions after ';' are ignored.
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("invalid chunk size %q", line)
		}

		if size == 0 {
			// Trailers, if any, run to the blank line.
			for {
				trailer, err := readLine(r)
				if err != nil {
					return nil, fmt.Errorf("truncated trailers: %w", err)
				}
				if trailer == "" {
					return body, nil
				}
			}
		}

		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, fmt.Errorf("truncated chunk: %w", err)
		}
		body = append(body, chunk...)

		if crlf, err := readLine(r); err != nil {
			return nil, fmt.Errorf("truncated chunk terminator: %w", err)
		} else if crlf != "" {
			return nil, fmt.Errorf("missing chunk terminator")
		}
	}
}

// gunzip decompresses a gzip-encoded body.
func gunzip(body []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return decompressed, nil
}

// readLine reads a CRLF-terminated line, tolerating bare LF.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
