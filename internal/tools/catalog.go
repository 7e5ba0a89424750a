// ABOUTME: The fixed catalog of CRM query tools exposed by the gateway.
// ABOUTME: Each tool declares a name, description, and explicit input contract.

package tools

// Object types the generic tools accept.
var (
	objectTypes      = []string{"contacts", "companies", "deals", "tickets"}
	pipelineTypes    = []string{"deals", "tickets"}
	associationTypes = []string{"contacts", "companies", "deals", "tickets"}
)

// Default property lists requested when the caller doesn't name their own.
var defaultProperties = map[string][]string{
	"contacts":  {"firstname", "lastname", "email", "phone", "company", "jobtitle", "lifecyclestage", "createdate", "lastmodifieddate"},
	"companies": {"name", "domain", "industry", "phone", "city", "state", "country", "numberofemployees", "annualrevenue", "createdate", "hs_lastmodifieddate"},
	"deals":     {"dealname", "amount", "dealstage", "pipeline", "closedate", "hubspot_owner_id", "createdate", "hs_lastmodifieddate"},
	"tickets":   {"subject", "content", "hs_pipeline", "hs_pipeline_stage", "createdate", "hs_lastmodifieddate"},
}

// lastModifiedProperty returns the per-object property that tracks the last
// modification time. Contacts are the odd one out in the CRM API.
func lastModifiedProperty(objectType string) string {
	if objectType == "contacts" {
		return "lastmodifieddate"
	}
	return "hs_lastmodifieddate"
}

// Tool is one named, contract-checked CRM query operation.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
}

// Catalog is the fixed tool enumeration. It never changes at runtime.
type Catalog struct {
	tools  []Tool
	byName map[string]Tool
}

// NewCatalog builds the gateway's tool catalog.
func NewCatalog() *Catalog {
	limitField := Field{Name: "limit", Type: TypeInteger, Min: 1, Max: 100, Default: 10,
		Description: "Maximum number of results to return"}
	afterField := Field{Name: "after", Type: TypeString,
		Description: "Paging cursor from a previous response"}

	tools := []Tool{
		{
			Name:        "search-contacts",
			Description: "Search CRM contacts by free-text query and/or exact email address.",
			Schema: Schema{Fields: []Field{
				{Name: "query", Type: TypeString, Description: "Free-text search across default searchable contact properties"},
				{Name: "email", Type: TypeString, Description: "Exact email address to match"},
				limitField,
				afterField,
			}},
		},
		{
			Name:        "search-companies",
			Description: "Search CRM companies by free-text query and/or exact domain.",
			Schema: Schema{Fields: []Field{
				{Name: "query", Type: TypeString, Description: "Free-text search across default searchable company properties"},
				{Name: "domain", Type: TypeString, Description: "Exact company domain to match"},
				limitField,
				afterField,
			}},
		},
		{
			Name:        "search-deals",
			Description: "Search CRM deals by free-text query, deal stage, and/or pipeline.",
			Schema: Schema{Fields: []Field{
				{Name: "query", Type: TypeString, Description: "Free-text search across default searchable deal properties"},
				{Name: "stage", Type: TypeString, Description: "Exact deal stage, e.g. closedwon"},
				{Name: "pipeline", Type: TypeString, Description: "Pipeline ID to restrict the search to"},
				limitField,
				afterField,
			}},
		},
		{
			Name:        "list-owners",
			Description: "List CRM owners (the users records can be assigned to).",
			Schema: Schema{Fields: []Field{
				{Name: "limit", Type: TypeInteger, Min: 1, Max: 500, Default: 100,
					Description: "Maximum number of owners to return"},
				afterField,
			}},
		},
		{
			Name:        "get-object-properties",
			Description: "List the property definitions of a CRM object type.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: objectTypes,
					Description: "CRM object type to inspect"},
				{Name: "archived", Type: TypeBoolean, Default: false,
					Description: "Include archived property definitions"},
			}},
		},
		{
			Name:        "get-pipelines",
			Description: "List the pipelines and stages of a CRM object type.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: pipelineTypes,
					Description: "CRM object type whose pipelines to list"},
			}},
		},
		{
			Name:        "paginate-objects",
			Description: "Page through all records of a CRM object type.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: objectTypes,
					Description: "CRM object type to page through"},
				{Name: "properties", Type: TypeStringArr,
					Description: "Properties to return; defaults to a per-type standard list"},
				limitField,
				afterField,
			}},
		},
		{
			Name:        "batch-read-by-id",
			Description: "Fetch CRM records by ID in bulk. Large ID lists are split into groups of 90 per upstream call.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: objectTypes,
					Description: "CRM object type of the IDs"},
				{Name: "ids", Type: TypeStringArr, Required: true,
					Description: "Record IDs to fetch"},
				{Name: "properties", Type: TypeStringArr,
					Description: "Properties to return; defaults to a per-type standard list"},
			}},
		},
		{
			Name:        "batch-read-associations",
			Description: "Fetch associations from one CRM object type to another for a list of record IDs. Split into groups of 90 per upstream call.",
			Schema: Schema{Fields: []Field{
				{Name: "fromObjectType", Type: TypeString, Required: true, Enum: associationTypes,
					Description: "Object type the IDs belong to"},
				{Name: "toObjectType", Type: TypeString, Required: true, Enum: associationTypes,
					Description: "Object type to find associations to"},
				{Name: "ids", Type: TypeStringArr, Required: true,
					Description: "Record IDs to look up associations for"},
			}},
		},
		{
			Name:        "search-recently-modified",
			Description: "List records of a CRM object type modified at or after a timestamp, newest first.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: objectTypes,
					Description: "CRM object type to search"},
				{Name: "since", Type: TypeTimestamp, Required: true,
					Description: "Epoch-milliseconds cutoff; records modified at or after this moment match"},
				limitField,
				afterField,
			}},
		},
		{
			Name:        "advanced-search",
			Description: "Run a raw CRM search with caller-supplied filter groups, sorts, and properties.",
			Schema: Schema{Fields: []Field{
				{Name: "objectType", Type: TypeString, Required: true, Enum: objectTypes,
					Description: "CRM object type to search"},
				{Name: "filterGroups", Type: TypeObjectArr,
					Description: "Search filter groups, ORed together; filters inside a group are ANDed"},
				{Name: "sorts", Type: TypeObjectArr,
					Description: "Sort specs ({propertyName, direction})"},
				{Name: "properties", Type: TypeStringArr,
					Description: "Properties to return; defaults to a per-type standard list"},
				{Name: "query", Type: TypeString, Description: "Free-text query"},
				limitField,
				afterField,
			}},
		},
	}

	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Catalog{tools: tools, byName: byName}
}

// List returns all tools in declaration order.
func (c *Catalog) List() []Tool {
	return c.tools
}

// Get returns the tool with the given name.
func (c *Catalog) Get(name string) (Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}
