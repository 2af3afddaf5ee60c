package proxy

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
)

// DefaultUserAgents is used when no user agents are configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
}

// Manager handles the rotation of proxies and user agents for outgoing fetches.
type Manager struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

// NewManager parses the proxy list. A nil or empty userAgents selects DefaultUserAgents.
func NewManager(proxies, userAgents []string) (*Manager, error) {
	m := &Manager{userAgents: userAgents}
	if len(m.userAgents) == 0 {
		m.userAgents = DefaultUserAgents
	}
	for _, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q: scheme and host are required", raw)
		}
		m.proxies = append(m.proxies, u)
	}
	return m, nil
}

// GetProxy returns the next proxy, rotating sequentially. Nil means direct.
func (m *Manager) GetProxy() *url.URL {
	if len(m.proxies) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// Proxy is suitable for http.Transport.Proxy.
func (m *Manager) Proxy(*http.Request) (*url.URL, error) {
	return m.GetProxy(), nil
}

// GetUserAgent returns a random user agent string.
func (m *Manager) GetUserAgent() string {
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[rand.IntN(len(m.userAgents))]
}
