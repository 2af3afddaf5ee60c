package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProxyRotates(t *testing.T) {
	m, err := NewManager([]string{"http://p1:8000", "http://p2:8000"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "p1:8000", m.GetProxy().Host)
	assert.Equal(t, "p2:8000", m.GetProxy().Host)
	assert.Equal(t, "p1:8000", m.GetProxy().Host)
}

func TestGetProxyNoneConfigured(t *testing.T) {
	m, err := NewManager(nil, nil)
	require.NoError(t, err)

	assert.Nil(t, m.GetProxy())
	u, err := m.Proxy(nil)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNewManagerRejectsBadProxy(t *testing.T) {
	_, err := NewManager([]string{"not a proxy"}, nil)
	assert.Error(t, err)
}

func TestGetUserAgent(t *testing.T) {
	m, err := NewManager(nil, []string{"embed-test/1.0"})
	require.NoError(t, err)
	assert.Equal(t, "embed-test/1.0", m.GetUserAgent())

	m, err = NewManager(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, DefaultUserAgents, m.GetUserAgent())
}
