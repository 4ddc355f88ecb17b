// Package app wires configuration, clients, services and HTTP handlers into
// a running server.
//
// App.Run serves until the context is cancelled or SIGINT/SIGTERM arrives,
// then drains in-flight requests within the configured shutdown timeout.
package app
