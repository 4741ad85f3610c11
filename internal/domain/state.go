package domain

// State is the mutable runtime state tracked alongside the declarative WBS.
// It is the sole artifact the Lifecycle Engine (internal/engine) mutates,
// always via a full read-modify-atomic-write cycle under the state lock.
type State struct {
	Version               string                     `json:"version"`
	SchemaVersion         string                     `json:"schema_version"`
	CreatedAt             string                     `json:"created_at"`
	UpdatedAt             string                     `json:"updated_at"`
	Packets               map[string]*PacketRuntime  `json:"packets"`
	Log                   []ActivityEvent            `json:"log"`
	AreaCloseouts         map[string]*AreaCloseout   `json:"area_closeouts"`
	LogIntegrityMode      LogIntegrityMode           `json:"log_integrity_mode"`
	ExpandedDependencies  map[string][]string        `json:"expanded_dependencies"`
}

// PacketRuntime is the mutable per-packet runtime record: current status,
// assignment, timestamps, notes, and the handover history.
type PacketRuntime struct {
	Status      PacketStatus `json:"status"`
	AssignedTo  string       `json:"assigned_to,omitempty"`
	StartedAt   string       `json:"started_at,omitempty"`
	CompletedAt string       `json:"completed_at,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Handovers   []Handover   `json:"handovers,omitempty"`
}

// ActiveHandover returns the packet's single in-flight handover, if any.
func (p *PacketRuntime) ActiveHandover() *Handover {
	for i := range p.Handovers {
		if p.Handovers[i].Active {
			return &p.Handovers[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the packet runtime record, used by the
// engine to compute a post_state without mutating the pre_state snapshot
// still referenced by the DCL write.
func (p *PacketRuntime) Clone() *PacketRuntime {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Handovers = make([]Handover, len(p.Handovers))
	copy(clone.Handovers, p.Handovers)
	return &clone
}

// Handover records a transfer of packet ownership away from its current
// agent, with enough progress context for the next agent to resume. At most
// one handover per packet has Active set.
type Handover struct {
	HandoverID     string   `json:"handover_id"`
	FromAgent      string   `json:"from_agent"`
	ToAgent        string   `json:"to_agent,omitempty"`
	Timestamp      string   `json:"timestamp"`
	Reason         string   `json:"reason"`
	ProgressNotes  string   `json:"progress_notes"`
	FilesModified  []string `json:"files_modified,omitempty"`
	RemainingWork  []string `json:"remaining_work,omitempty"`
	Active         bool     `json:"active"`
	ResumedBy      string   `json:"resumed_by,omitempty"`
	ResumedAt      string   `json:"resumed_at,omitempty"`
}

// AreaCloseout records that a level-2 work area has been closed out, with
// the drift-assessment metadata captured at closeout time.
type AreaCloseout struct {
	AreaID         string `json:"area_id"`
	Agent          string `json:"agent"`
	AssessmentPath string `json:"assessment_path"`
	Notes          string `json:"notes,omitempty"`
	ClosedAt       string `json:"closed_at"`
	CommitHash     string `json:"commit_hash,omitempty"`
}

// ActivityEvent is one entry in the append-only activity log. HashChain
// fields (EventID/PrevHash/Hash) are present only when the log's integrity
// mode is hash_chain; all three must be present together or none at all.
type ActivityEvent struct {
	PacketID string `json:"packet_id"`
	Event    string `json:"event"`
	Agent    string `json:"agent,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Timestamp string `json:"timestamp"`

	EventID  string `json:"event_id,omitempty"`
	PrevHash string `json:"prev_hash,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

// IsHashed reports whether EventID and Hash are both present; PrevHash is
// not checked.
func (e ActivityEvent) IsHashed() bool {
	return e.EventID != "" && e.Hash != ""
}

// HasPartialChainFields reports whether the event carries some but not all
// of its chain fields — always a fatal inconsistency per the activity log's
// all-or-nothing rule.
func (e ActivityEvent) HasPartialChainFields() bool {
	present := 0
	if e.EventID != "" {
		present++
	}
	if e.Hash != "" {
		present++
	}
	// PrevHash legitimately empty for the first hashed entry, so it does
	// not count toward the all-or-nothing check on its own.
	return present == 1
}

// NewState returns a freshly initialized runtime state for a WBS that has
// never been instantiated, with the given schema version and timestamp.
func NewState(schemaVersion, now string) *State {
	return &State{
		Version:              "1",
		SchemaVersion:        schemaVersion,
		CreatedAt:            now,
		UpdatedAt:            now,
		Packets:              make(map[string]*PacketRuntime),
		Log:                  make([]ActivityEvent, 0),
		AreaCloseouts:        make(map[string]*AreaCloseout),
		LogIntegrityMode:     LogModePlain,
		ExpandedDependencies: make(map[string][]string),
	}
}
