// Package hubspot is a thin authenticated client for the HubSpot CRM REST API
// (v3 objects/search/properties/pipelines/owners, v4 associations).
//
// The client is deliberately dumb: it adds the bearer credential, encodes and
// decodes JSON, and turns any non-2xx status, transport failure, or non-JSON
// body into an error that carries the upstream status code and body text
// verbatim. It performs no retries, caching, or rate limiting, and imposes no
// timeout of its own — callers that want one inject an *http.Client with a
// Timeout set.
package hubspot
