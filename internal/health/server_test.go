package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealth_HealthyWhenGatewayAndStoreUp(t *testing.T) {
	s := NewServer("127.0.0.1", 0, 5, 5, &fakePinger{}, func() bool { return true })

	resp, err := s.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
}

func TestHealth_UnhealthyWhenStoreDown(t *testing.T) {
	s := NewServer("127.0.0.1", 0, 5, 5, &fakePinger{err: errors.New("no reachable servers")}, func() bool { return true })

	resp, err := s.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)

	assert.Equal(t, 503, resp.StatusCode)
}

func TestHealth_UnhealthyWhenGatewayNotReady(t *testing.T) {
	s := NewServer("127.0.0.1", 0, 5, 5, &fakePinger{}, func() bool { return false })

	resp, err := s.app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	assert.Equal(t, 503, resp.StatusCode)
}
