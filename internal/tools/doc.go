// Package tools defines the gateway's fixed catalog of CRM query tools and
// executes invocations against the HubSpot API.
//
// Every tool carries an explicit input contract (Schema). Validation fails
// closed: unknown keys, missing required fields, type mismatches, enum and
// range violations all reject the invocation before any remote call is made.
// Execution produces exactly one result envelope per invocation — {ok: true,
// count, results, paging} on success, {ok: false, error} on any failure —
// with remote error status and body carried verbatim in the error text.
//
// Batch tools partition large ID lists into groups of 90 per upstream call,
// concatenating results in input order; a single failed group fails the whole
// invocation with no partial results.
package tools
