// Package app wires configuration, storage, the recomputation services
// and the HTTP transport into a runnable server with graceful shutdown.
package app
