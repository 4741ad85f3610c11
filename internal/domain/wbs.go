// Package domain defines the shared data types that flow between the
// kernel's components: the declarative work-breakdown structure, runtime
// packet state, handovers, activity events, and DCL ledger records.
//
// Types in this package are plain data (JSON-tagged structs) with no
// behavior beyond small validity predicates. They MUST NOT import
// internal/engine, internal/dcl, internal/activity, or internal/supervisor —
// those packages depend on domain, never the reverse.
package domain

// WBSDefinition is the read-mostly declarative work-breakdown structure
// loaded from wbs.json. It describes the shape of the work; runtime
// mutation lives in State, not here.
type WBSDefinition struct {
	Metadata     WBSMetadata         `json:"metadata"`
	WorkAreas    []WorkArea          `json:"work_areas"`
	Packets      []PacketDefinition  `json:"packets"`
	Dependencies map[string][]string `json:"dependencies"`
}

// WBSMetadata carries project-level provenance for the WBS document.
type WBSMetadata struct {
	ProjectName string `json:"project_name"`
	ApprovedBy  string `json:"approved_by,omitempty"`
	ApprovedAt  string `json:"approved_at,omitempty"`
}

// WorkArea groups packets under a level-2 area that is closed out as a unit.
type WorkArea struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// PacketDefinition is the declarative description of a unit of work: its
// identity, scope, and the capabilities required to claim it. Runtime status
// is tracked separately in PacketRuntime.
type PacketDefinition struct {
	ID                   string   `json:"id"`
	WBSRef               string   `json:"wbs_ref"`
	AreaID               string   `json:"area_id"`
	Title                string   `json:"title"`
	Scope                string   `json:"scope"`
	Tags                 []string `json:"tags,omitempty"`
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`
	DependsOn            []string `json:"depends_on,omitempty"`
}
