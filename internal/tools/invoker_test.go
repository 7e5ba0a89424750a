// ABOUTME: Tests for tool execution against a fake HubSpot upstream
// ABOUTME: Verifies envelope shape, batch partitioning, and error passthrough

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymesh/hubspot-gateway/internal/hubspot"
)

type upstreamCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// newTestInvoker wires an invoker to a fake upstream driven by handler.
func newTestInvoker(t *testing.T, handler http.HandlerFunc) (*Invoker, *[]upstreamCall) {
	t.Helper()
	var calls []upstreamCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := upstreamCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &call.Body)
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}
		calls = append(calls, call)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := hubspot.NewClient(hubspot.Config{AccessToken: "pat-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return NewInvoker(client, NewCatalog(), nil), &calls
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	inv, _ := newTestInvoker(t, respondJSON(`{}`))

	env := inv.Invoke(context.Background(), "delete-everything", nil)
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "unknown tool")
}

func TestInvoke_ContractViolationNoRemoteCall(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{}`))

	env := inv.Invoke(context.Background(), "search-deals", map[string]any{"stage": 42})
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "invalid arguments")
	assert.Empty(t, *calls, "rejected invocations must not reach the upstream")
}

func TestSearchDeals_StageFilter(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"total": 2, "results": [{"id": "1"}, {"id": "2"}]}`))

	env := inv.Invoke(context.Background(), "search-deals", map[string]any{"stage": "closedwon"})
	require.Equal(t, true, env["ok"])
	assert.Equal(t, 2, env["count"])
	assert.Nil(t, env["paging"])

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/crm/v3/objects/deals/search", call.Path)

	groups, ok := call.Body["filterGroups"].([]any)
	require.True(t, ok)
	require.Len(t, groups, 1)
	filters := groups[0].(map[string]any)["filters"].([]any)
	require.Len(t, filters, 1)
	filter := filters[0].(map[string]any)
	assert.Equal(t, "dealstage", filter["propertyName"])
	assert.Equal(t, "EQ", filter["operator"])
	assert.Equal(t, "closedwon", filter["value"])

	// Default property list rides along when the caller names none.
	props, ok := call.Body["properties"].([]any)
	require.True(t, ok)
	assert.Contains(t, props, "dealname")
	assert.Contains(t, props, "amount")
}

func TestSearchContacts_NoFilterWithoutEmail(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": []}`))

	env := inv.Invoke(context.Background(), "search-contacts", map[string]any{"query": "smith"})
	require.Equal(t, true, env["ok"])

	call := (*calls)[0]
	assert.Equal(t, "smith", call.Body["query"])
	_, hasGroups := call.Body["filterGroups"]
	assert.False(t, hasGroups)
}

func TestListOwners_DefaultsAndPassthrough(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": [{"id": "9"}], "paging": {"next": {"after": "p2"}}}`))

	env := inv.Invoke(context.Background(), "list-owners", nil)
	require.Equal(t, true, env["ok"])

	call := (*calls)[0]
	assert.Equal(t, "/crm/v3/owners", call.Path)
	assert.Equal(t, "limit=100", call.Query)

	// Every top-level upstream field survives alongside ok.
	results, ok := env["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 1)
	assert.NotNil(t, env["paging"])
	_, hasCount := env["count"]
	assert.False(t, hasCount, "list-owners passes the response through without reshaping")
}

func TestBatchReadByID_PartitionsInOrder(t *testing.T) {
	// 181 IDs must split into calls of 90, 90, and 1, results concatenated in
	// input order.
	inv, calls := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs []struct {
				ID string `json:"id"`
			} `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		results := make([]map[string]any, len(body.Inputs))
		for i, in := range body.Inputs {
			results[i] = map[string]any{"id": in.ID}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	})

	ids := make([]any, 181)
	for i := range ids {
		ids[i] = fmt.Sprintf("rec-%03d", i)
	}

	env := inv.Invoke(context.Background(), "batch-read-by-id", map[string]any{
		"objectType": "contacts",
		"ids":        ids,
	})
	require.Equal(t, true, env["ok"])
	assert.Equal(t, 181, env["count"])

	require.Len(t, *calls, 3)
	for i, call := range *calls {
		assert.Equal(t, "/crm/v3/objects/contacts/batch/read", call.Path, "call %d", i)
	}

	results := env["results"].([]any)
	require.Len(t, results, 181)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("rec-%03d", i), r.(map[string]any)["id"])
	}
}

func TestBatchReadByID_GroupFailureFailsWhole(t *testing.T) {
	var n int
	inv, _ := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		n++
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"rate limited"}`))
			return
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	ids := make([]any, 181)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	env := inv.Invoke(context.Background(), "batch-read-by-id", map[string]any{
		"objectType": "deals",
		"ids":        ids,
	})
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "status 429")
	assert.Contains(t, env["error"], "rate limited")
	_, hasResults := env["results"]
	assert.False(t, hasResults, "failure envelopes carry no partial results")
}

func TestBatchReadAssociations_Path(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": [{"from": {"id": "1"}}]}`))

	env := inv.Invoke(context.Background(), "batch-read-associations", map[string]any{
		"fromObjectType": "contacts",
		"toObjectType":   "companies",
		"ids":            []any{"1"},
	})
	require.Equal(t, true, env["ok"])
	assert.Equal(t, 1, env["count"])
	assert.Equal(t, "/crm/v4/associations/contacts/companies/batch/read", (*calls)[0].Path)
}

func TestSearchRecentlyModified_FilterAndSort(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": []}`))

	env := inv.Invoke(context.Background(), "search-recently-modified", map[string]any{
		"objectType": "companies",
		"since":      float64(1700000000000),
	})
	require.Equal(t, true, env["ok"])

	body := (*calls)[0].Body
	groups := body["filterGroups"].([]any)
	filter := groups[0].(map[string]any)["filters"].([]any)[0].(map[string]any)
	assert.Equal(t, "hs_lastmodifieddate", filter["propertyName"])
	assert.Equal(t, "GTE", filter["operator"])
	assert.Equal(t, "1700000000000", filter["value"])

	sorts := body["sorts"].([]any)
	require.Len(t, sorts, 1)
	sort := sorts[0].(map[string]any)
	assert.Equal(t, "hs_lastmodifieddate", sort["propertyName"])
	assert.Equal(t, "DESCENDING", sort["direction"])
}

func TestAdvancedSearch_ForwardsCallerFilters(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": [{"id": "5"}]}`))

	env := inv.Invoke(context.Background(), "advanced-search", map[string]any{
		"objectType": "tickets",
		"filterGroups": []any{
			map[string]any{"filters": []any{
				map[string]any{"propertyName": "hs_pipeline_stage", "operator": "IN", "values": []any{"1", "2"}},
			}},
		},
		"sorts": []any{
			map[string]any{"propertyName": "createdate", "direction": "ASCENDING"},
		},
		"properties": []any{"subject"},
	})
	require.Equal(t, true, env["ok"])

	body := (*calls)[0].Body
	assert.Equal(t, "/crm/v3/objects/tickets/search", (*calls)[0].Path)

	groups := body["filterGroups"].([]any)
	filter := groups[0].(map[string]any)["filters"].([]any)[0].(map[string]any)
	assert.Equal(t, "IN", filter["operator"])
	assert.Equal(t, []any{"1", "2"}, filter["values"])

	assert.Equal(t, []any{"subject"}, body["properties"])
}

func TestGetObjectProperties_Path(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{"results": [{"name": "email"}]}`))

	env := inv.Invoke(context.Background(), "get-object-properties", map[string]any{"objectType": "contacts"})
	require.Equal(t, true, env["ok"])
	assert.Equal(t, 1, env["count"])

	call := (*calls)[0]
	assert.Equal(t, "/crm/v3/properties/contacts", call.Path)
	assert.NotContains(t, call.Query, "archived")
}

func TestGetPipelines_EnumRejectsContacts(t *testing.T) {
	inv, calls := newTestInvoker(t, respondJSON(`{}`))

	env := inv.Invoke(context.Background(), "get-pipelines", map[string]any{"objectType": "contacts"})
	assert.Equal(t, false, env["ok"])
	assert.Empty(t, *calls)
}

func TestChunkIDs(t *testing.T) {
	cases := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{1, []int{1}},
		{90, []int{90}},
		{91, []int{90, 1}},
		{181, []int{90, 90, 1}},
		{270, []int{90, 90, 90}},
	}
	for _, tc := range cases {
		ids := make([]string, tc.n)
		for i := range ids {
			ids[i] = fmt.Sprintf("%d", i)
		}
		groups := chunkIDs(ids, 90)
		var sizes []int
		for _, g := range groups {
			sizes = append(sizes, len(g))
		}
		assert.Equal(t, tc.want, sizes, "n=%d", tc.n)
	}
}

func TestCatalog_AllToolsHaveExecutors(t *testing.T) {
	inv, _ := newTestInvoker(t, respondJSON(`{"results": []}`))

	args := map[string]map[string]any{
		"get-object-properties":    {"objectType": "contacts"},
		"get-pipelines":            {"objectType": "deals"},
		"paginate-objects":         {"objectType": "deals"},
		"batch-read-by-id":         {"objectType": "deals", "ids": []any{"1"}},
		"batch-read-associations":  {"fromObjectType": "deals", "toObjectType": "contacts", "ids": []any{"1"}},
		"search-recently-modified": {"objectType": "deals", "since": "0"},
		"advanced-search":          {"objectType": "deals"},
	}

	for _, tool := range NewCatalog().List() {
		env := inv.Invoke(context.Background(), tool.Name, args[tool.Name])
		assert.Equal(t, true, env["ok"], "tool %s", tool.Name)
	}
}
