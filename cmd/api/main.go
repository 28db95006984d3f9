// Command api runs only the HTTP and gRPC servers, for container images that
// do not ship the operator CLI.
package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/creditdesk/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
