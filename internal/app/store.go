package app

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/creditdesk/internal/client/orderstore"
	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/database"
	reviewrepo "github.com/Additional-Code/creditdesk/internal/repository/review"
	"github.com/Additional-Code/creditdesk/internal/store"
)

// StoreModule provides the store.Store selected by STORE_BACKEND.
var StoreModule = fx.Provide(NewStore)

// NewStore opens database connections only for the database backend, so an
// HTTP-backed deployment needs no DSN.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "http":
		logger.Info("using remote order store", zap.String("base_url", cfg.Store.BaseURL))
		return orderstore.New(cfg.Store, logger), nil
	case "database", "":
		conns, err := database.New(lc, cfg, logger)
		if err != nil {
			return nil, err
		}
		return reviewrepo.NewRepository(conns), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
