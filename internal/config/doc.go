// Package config loads and validates the hubspot-gateway configuration.
//
// Configuration is a single YAML file. Environment variables in the form
// ${VAR_NAME} are expanded before parsing, so the HubSpot access token can be
// kept out of the file:
//
//	server:
//	  http_addr: "localhost:8081"
//
//	hubspot:
//	  access_token: "${HUBSPOT_ACCESS_TOKEN}"
//
//	auth:
//	  jwt_secret: ""          # optional; empty disables bearer auth
//
//	tailscale:
//	  enabled: false
//
//	logging:
//	  level: "info"
//	  format: "text"
//
// HUBSPOT_ACCESS_TOKEN and HUBSPOT_GATEWAY_ADDR always override the file.
// Validation is fail-fast: a missing access token aborts startup before any
// listener is opened.
package config
