package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/creditdesk/internal/cache"
	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/database"
	"github.com/Additional-Code/creditdesk/internal/logger"
	"github.com/Additional-Code/creditdesk/internal/messaging"
	"github.com/Additional-Code/creditdesk/internal/observability"
	reviewrepo "github.com/Additional-Code/creditdesk/internal/repository/review"
	grpcserver "github.com/Additional-Code/creditdesk/internal/server/grpc"
	httpserver "github.com/Additional-Code/creditdesk/internal/server/http"
	reviewservice "github.com/Additional-Code/creditdesk/internal/service/review"
	transporthttp "github.com/Additional-Code/creditdesk/internal/transport/http"
	"github.com/Additional-Code/creditdesk/internal/worker"
	workerreview "github.com/Additional-Code/creditdesk/internal/worker/review"
)

// Base is configuration, logging and telemetry; every executable starts here.
var Base = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
)

// Database adds the bun connections and the database-backed store for
// commands that always talk to the database directly (migrate, seed).
var Database = fx.Options(
	database.Module,
	reviewrepo.Module,
)

// Core provides the review service on top of the configured order store.
var Core = fx.Options(
	Base,
	cache.Module,
	messaging.Module,
	StoreModule,
	reviewservice.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerreview.Module,
)

// Module is the default application wiring.
var Module = HTTP
