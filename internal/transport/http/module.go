package http

import (
	"go.uber.org/fx"

	reviewtransport "github.com/Additional-Code/creditdesk/internal/transport/http/review"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	reviewtransport.Module,
)
