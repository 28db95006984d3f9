package review

import "go.uber.org/fx"

// Module provides the database-backed order store to Fx.
var Module = fx.Provide(NewRepository)
