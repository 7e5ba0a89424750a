// ABOUTME: Translates validated tool invocations into HubSpot API calls.
// ABOUTME: Stateless; every outcome is a uniform ok/error result envelope.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/relaymesh/hubspot-gateway/internal/hubspot"
)

// batchGroupSize is the number of IDs submitted per batch-read call, kept
// under the API's payload ceiling of 100 inputs.
const batchGroupSize = 90

// Envelope is the uniform result wrapper every invocation produces:
// {ok, count?, results?, paging?, error?}. Exactly one envelope per
// invocation, never partially populated.
type Envelope map[string]any

// Failure builds a failure envelope from an error.
func Failure(err error) Envelope {
	return Envelope{"ok": false, "error": err.Error()}
}

// searchEnvelope wraps a search/list response: results, their count, and the
// paging cursor (explicit null when the upstream sent none).
func searchEnvelope(resp map[string]any) Envelope {
	results, _ := resp["results"].([]any)
	env := Envelope{
		"ok":      true,
		"count":   len(results),
		"results": results,
	}
	if paging, ok := resp["paging"]; ok {
		env["paging"] = paging
	} else {
		env["paging"] = nil
	}
	return env
}

// passthroughEnvelope copies every top-level field of the upstream response
// into the envelope alongside ok.
func passthroughEnvelope(resp map[string]any) Envelope {
	env := make(Envelope, len(resp)+1)
	for k, v := range resp {
		env[k] = v
	}
	env["ok"] = true
	return env
}

// Invoker executes catalog tools against the HubSpot API. It retains no state
// between invocations; its only side effects are the outbound calls.
type Invoker struct {
	client  *hubspot.Client
	catalog *Catalog
	logger  *slog.Logger
}

// NewInvoker creates an invoker bound to a HubSpot client and tool catalog.
func NewInvoker(client *hubspot.Client, catalog *Catalog, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{client: client, catalog: catalog, logger: logger}
}

// Invoke validates the arguments and executes the named tool. Every failure —
// unknown tool, contract violation, upstream error — comes back as a failure
// envelope; nothing propagates as a fault past this boundary.
func (inv *Invoker) Invoke(ctx context.Context, name string, args map[string]any) Envelope {
	tool, ok := inv.catalog.Get(name)
	if !ok {
		return Failure(fmt.Errorf("unknown tool %q", name))
	}

	validated, err := tool.Schema.Validate(args)
	if err != nil {
		return Failure(fmt.Errorf("invalid arguments: %w", err))
	}

	env, err := inv.execute(ctx, name, validated)
	if err != nil {
		inv.logger.Warn("tool invocation failed", "tool", name, "error", err)
		return Failure(err)
	}
	return env
}

func (inv *Invoker) execute(ctx context.Context, name string, args map[string]any) (Envelope, error) {
	switch name {
	case "search-contacts":
		return inv.searchContacts(ctx, args)
	case "search-companies":
		return inv.searchCompanies(ctx, args)
	case "search-deals":
		return inv.searchDeals(ctx, args)
	case "list-owners":
		return inv.listOwners(ctx, args)
	case "get-object-properties":
		return inv.getObjectProperties(ctx, args)
	case "get-pipelines":
		return inv.getPipelines(ctx, args)
	case "paginate-objects":
		return inv.paginateObjects(ctx, args)
	case "batch-read-by-id":
		return inv.batchReadByID(ctx, args)
	case "batch-read-associations":
		return inv.batchReadAssociations(ctx, args)
	case "search-recently-modified":
		return inv.searchRecentlyModified(ctx, args)
	case "advanced-search":
		return inv.advancedSearch(ctx, args)
	default:
		// Catalog and executor switch are maintained together; a miss here is
		// a programming error, surfaced as a failure envelope like the rest.
		return nil, fmt.Errorf("tool %q has no executor", name)
	}
}

func (inv *Invoker) searchContacts(ctx context.Context, args map[string]any) (Envelope, error) {
	req := hubspot.SearchRequest{
		Query:      strArg(args, "query"),
		Properties: defaultProperties["contacts"],
		Limit:      intArg(args, "limit"),
		After:      strArg(args, "after"),
	}
	if email := strArg(args, "email"); email != "" {
		req.FilterGroups = []hubspot.FilterGroup{{Filters: []hubspot.Filter{
			{PropertyName: "email", Operator: "EQ", Value: email},
		}}}
	}

	resp, err := inv.client.SearchObjects(ctx, "contacts", req)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) searchCompanies(ctx context.Context, args map[string]any) (Envelope, error) {
	req := hubspot.SearchRequest{
		Query:      strArg(args, "query"),
		Properties: defaultProperties["companies"],
		Limit:      intArg(args, "limit"),
		After:      strArg(args, "after"),
	}
	if domain := strArg(args, "domain"); domain != "" {
		req.FilterGroups = []hubspot.FilterGroup{{Filters: []hubspot.Filter{
			{PropertyName: "domain", Operator: "EQ", Value: domain},
		}}}
	}

	resp, err := inv.client.SearchObjects(ctx, "companies", req)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) searchDeals(ctx context.Context, args map[string]any) (Envelope, error) {
	req := hubspot.SearchRequest{
		Query:      strArg(args, "query"),
		Properties: defaultProperties["deals"],
		Limit:      intArg(args, "limit"),
		After:      strArg(args, "after"),
	}

	var filters []hubspot.Filter
	if stage := strArg(args, "stage"); stage != "" {
		filters = append(filters, hubspot.Filter{PropertyName: "dealstage", Operator: "EQ", Value: stage})
	}
	if pipeline := strArg(args, "pipeline"); pipeline != "" {
		filters = append(filters, hubspot.Filter{PropertyName: "pipeline", Operator: "EQ", Value: pipeline})
	}
	if len(filters) > 0 {
		req.FilterGroups = []hubspot.FilterGroup{{Filters: filters}}
	}

	resp, err := inv.client.SearchObjects(ctx, "deals", req)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) listOwners(ctx context.Context, args map[string]any) (Envelope, error) {
	resp, err := inv.client.ListOwners(ctx, intArg(args, "limit"), strArg(args, "after"))
	if err != nil {
		return nil, err
	}
	return passthroughEnvelope(resp), nil
}

func (inv *Invoker) getObjectProperties(ctx context.Context, args map[string]any) (Envelope, error) {
	resp, err := inv.client.GetProperties(ctx, strArg(args, "objectType"), boolArg(args, "archived"))
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) getPipelines(ctx context.Context, args map[string]any) (Envelope, error) {
	resp, err := inv.client.GetPipelines(ctx, strArg(args, "objectType"))
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) paginateObjects(ctx context.Context, args map[string]any) (Envelope, error) {
	objectType := strArg(args, "objectType")
	properties := strsArg(args, "properties")
	if len(properties) == 0 {
		properties = defaultProperties[objectType]
	}

	resp, err := inv.client.ListObjects(ctx, objectType, intArg(args, "limit"), strArg(args, "after"), properties)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) batchReadByID(ctx context.Context, args map[string]any) (Envelope, error) {
	objectType := strArg(args, "objectType")
	properties := strsArg(args, "properties")
	if len(properties) == 0 {
		properties = defaultProperties[objectType]
	}

	var results []any
	for _, group := range chunkIDs(strsArg(args, "ids"), batchGroupSize) {
		inputs := make([]hubspot.BatchInput, len(group))
		for i, id := range group {
			inputs[i] = hubspot.BatchInput{ID: id}
		}

		resp, err := inv.client.BatchRead(ctx, objectType, hubspot.BatchReadRequest{
			Inputs:     inputs,
			Properties: properties,
		})
		if err != nil {
			// One failed group fails the whole invocation; the calls are
			// read-only so there is nothing to roll back.
			return nil, err
		}
		groupResults, _ := resp["results"].([]any)
		results = append(results, groupResults...)
	}

	return Envelope{"ok": true, "count": len(results), "results": results, "paging": nil}, nil
}

func (inv *Invoker) batchReadAssociations(ctx context.Context, args map[string]any) (Envelope, error) {
	fromType := strArg(args, "fromObjectType")
	toType := strArg(args, "toObjectType")

	var results []any
	for _, group := range chunkIDs(strsArg(args, "ids"), batchGroupSize) {
		inputs := make([]hubspot.BatchInput, len(group))
		for i, id := range group {
			inputs[i] = hubspot.BatchInput{ID: id}
		}

		resp, err := inv.client.BatchReadAssociations(ctx, fromType, toType, inputs)
		if err != nil {
			return nil, err
		}
		groupResults, _ := resp["results"].([]any)
		results = append(results, groupResults...)
	}

	return Envelope{"ok": true, "count": len(results), "results": results, "paging": nil}, nil
}

func (inv *Invoker) searchRecentlyModified(ctx context.Context, args map[string]any) (Envelope, error) {
	objectType := strArg(args, "objectType")
	prop := lastModifiedProperty(objectType)

	req := hubspot.SearchRequest{
		FilterGroups: []hubspot.FilterGroup{{Filters: []hubspot.Filter{
			{PropertyName: prop, Operator: "GTE", Value: strArg(args, "since")},
		}}},
		Sorts:      []hubspot.Sort{{PropertyName: prop, Direction: "DESCENDING"}},
		Properties: defaultProperties[objectType],
		Limit:      intArg(args, "limit"),
		After:      strArg(args, "after"),
	}

	resp, err := inv.client.SearchObjects(ctx, objectType, req)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

func (inv *Invoker) advancedSearch(ctx context.Context, args map[string]any) (Envelope, error) {
	objectType := strArg(args, "objectType")

	req := hubspot.SearchRequest{
		Query: strArg(args, "query"),
		Limit: intArg(args, "limit"),
		After: strArg(args, "after"),
	}

	req.Properties = strsArg(args, "properties")
	if len(req.Properties) == 0 {
		req.Properties = defaultProperties[objectType]
	}

	if raw, ok := args["filterGroups"]; ok {
		if err := reshape(raw, &req.FilterGroups); err != nil {
			return nil, fmt.Errorf("invalid arguments: filterGroups: %w", err)
		}
	}
	if raw, ok := args["sorts"]; ok {
		if err := reshape(raw, &req.Sorts); err != nil {
			return nil, fmt.Errorf("invalid arguments: sorts: %w", err)
		}
	}

	resp, err := inv.client.SearchObjects(ctx, objectType, req)
	if err != nil {
		return nil, err
	}
	return searchEnvelope(resp), nil
}

// reshape converts a validated generic value into a typed request fragment
// via a JSON round-trip, rejecting shapes the API would not accept.
func reshape(raw any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// chunkIDs slices ids into contiguous groups of at most size, preserving
// input order across groups.
func chunkIDs(ids []string, size int) [][]string {
	var groups [][]string
	for len(ids) > size {
		groups = append(groups, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		groups = append(groups, ids)
	}
	return groups
}

// Validated-argument accessors. Validate has already enforced types, so a
// missing optional field just yields the zero value.

func strArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string) int {
	n, _ := args[name].(int)
	return n
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func strsArg(args map[string]any, name string) []string {
	v, _ := args[name].([]string)
	return v
}
