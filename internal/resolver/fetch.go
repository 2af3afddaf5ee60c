package resolver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/user/embed-images/internal/proxy"
)

// Timeout bounds a single fetch. Either Total is set, or the Connect/Read pair
// is used independently. Zero values mean no limit.
type Timeout struct {
	Total   time.Duration
	Connect time.Duration
	// Read limits each wait for data once connected, headers and body alike.
	Read time.Duration
}

// TotalTimeout is the single-duration form.
func TotalTimeout(d time.Duration) Timeout {
	return Timeout{Total: d}
}

// PairTimeout is the connect/read form.
func PairTimeout(connect, read time.Duration) Timeout {
	return Timeout{Connect: connect, Read: read}
}

// NewHTTPClient builds a client honouring t. pm may be nil.
func NewHTTPClient(t Timeout, pm *proxy.Manager) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if t.Connect > 0 || t.Read > 0 {
		dialer := &net.Dialer{
			Timeout:   t.Connect,
			KeepAlive: 30 * time.Second,
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil || t.Read <= 0 {
				return conn, err
			}
			return &readDeadlineConn{Conn: conn, timeout: t.Read}, nil
		}
	}
	if t.Connect > 0 {
		transport.TLSHandshakeTimeout = t.Connect
	}
	if t.Read > 0 {
		transport.ResponseHeaderTimeout = t.Read
	}
	if pm != nil {
		transport.Proxy = pm.Proxy
	}
	return &http.Client{
		Transport: transport,
		Timeout:   t.Total,
	}
}

// readDeadlineConn bounds every socket read, so a stalled body fails the
// fetch after timeout of silence.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

// fetch performs one GET. Any error, including a non-2xx status, is terminal
// for the reference.
func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveFetch(time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.proxies != nil {
		if ua := r.proxies.GetUserAgent(); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
