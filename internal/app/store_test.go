package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/creditdesk/internal/client/orderstore"
	"github.com/Additional-Code/creditdesk/internal/config"
)

func TestNewStoreSelectsRemoteBackend(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Store: config.Store{Backend: "http", BaseURL: "http://orders.internal"}}

	s, err := NewStore(lc, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &orderstore.Client{}, s)
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Store: config.Store{Backend: "carrier-pigeon"}}

	_, err := NewStore(lc, cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "carrier-pigeon")
}
