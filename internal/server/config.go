package server

import (
	"github.com/phishsentry/phishsentry/internal/app"
	"github.com/phishsentry/phishsentry/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// scans in-process and does not require the network).
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger

	// ComponentOptions are forwarded to app.NewComponents.
	ComponentOptions []app.ComponentOption
}
