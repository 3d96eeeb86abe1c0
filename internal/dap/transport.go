// Package dap speaks the Debug Adapter Protocol wire format.
package dap

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// MaxPayload bounds a single message body (10MB).
const MaxPayload = 10 * 1024 * 1024

// Transport frames JSON payloads with Content-Length headers.
type Transport interface {
	// Send writes one framed payload.
	Send(payload []byte) error

	// Receive reads the next framed payload.
	Receive() ([]byte, error)

	// Close tears down the underlying connection.
	Close() error
}

// framed is the shared framing logic over any ReadWriteCloser.
type framed struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// Wrap adapts any ReadWriteCloser into a Transport.
func Wrap(rwc io.ReadWriteCloser) Transport {
	return &framed{rwc: rwc, reader: bufio.NewReader(rwc)}
}

// Dial connects to a debug adapter listening on a TCP address.
func Dial(address string) (Transport, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return Wrap(conn), nil
}

func (t *framed) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := io.WriteString(t.rwc, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.rwc.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

func (t *framed) Receive() ([]byte, error) {
	length := -1

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		if strings.EqualFold(name, "content-length") {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("bad content-length: %w", err)
			}
			if n < 0 || n > MaxPayload {
				return nil, fmt.Errorf("content-length %d out of range", n)
			}
			length = n
		}
	}

	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(t.reader, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}

func (t *framed) Close() error {
	return t.rwc.Close()
}
