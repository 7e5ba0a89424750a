// Package gateway assembles and runs the serving process: it builds the
// HubSpot client, tool catalog, invoker, session registry, and MCP server
// from configuration, mounts them with health endpoints on one HTTP server,
// and manages startup, optional tsnet serving, and graceful shutdown.
package gateway
