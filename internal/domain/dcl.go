package domain

// GenesisSentinel is the prev_commit_hash value recorded on a packet's
// first DCL commit (seq=1), since there is no prior commit to chain to.
const GenesisSentinel = "GENESIS"

// Commit is one immutable entry in a packet's deterministic commit ledger.
// CommitHash is the canonical-JSON SHA-256 of every other field; ActionHash
// is the canonical-JSON SHA-256 of ActionEnvelope alone.
type Commit struct {
	CommitID        string         `json:"commit_id"`
	PacketID        string         `json:"packet_id"`
	Seq             int            `json:"seq"`
	PrevCommitHash  string         `json:"prev_commit_hash"`
	ActionHash      string         `json:"action_hash"`
	PreStateHash    string         `json:"pre_state_hash"`
	PostStateHash   string         `json:"post_state_hash"`
	ConstitutionHash string        `json:"constitution_hash"`
	Diff            map[string]any `json:"diff,omitempty"`
	CreatedAt       string         `json:"created_at"`
	ActionEnvelope  ActionEnvelope `json:"action_envelope"`
	CommitHash      string         `json:"commit_hash"`
}

// ActionEnvelope describes the transition a commit records: what happened,
// who did it, and why. Its canonical-JSON hash is ActionHash.
type ActionEnvelope struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Actor     Actor          `json:"actor"`
	Reason    string         `json:"reason,omitempty"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Actor identifies who triggered a transition. Kind is currently always
// "agent"; the field exists so system-initiated transitions (e.g. schema
// migrations) can be attributed distinctly.
type Actor struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Head is the latest committed pointer for a packet's ledger.
type Head struct {
	Seq        int    `json:"seq"`
	CommitHash string `json:"commit_hash"`
}

// JournalStage distinguishes the two phases of the DCL write protocol.
type JournalStage string

// Journal write-protocol stages.
const (
	JournalStagePrepare JournalStage = "prepare"
	JournalStageDone    JournalStage = "done"
)

// Journal is the transient two-phase commit marker written before a commit
// file and HEAD are durable, and cleaned up once both are written.
type Journal struct {
	Stage      JournalStage `json:"stage"`
	Seq        int          `json:"seq"`
	CommitHash string       `json:"commit_hash"`
}

// Checkpoint is a project-wide, append-only attestation of every packet's
// current HEAD at a point in time.
type Checkpoint struct {
	CheckpointID   string            `json:"checkpoint_id"`
	Phase          string            `json:"phase"`
	PacketHeads    map[string]string `json:"packet_heads"`
	MerkleRoot     string            `json:"merkle_root"`
	CreatedAt      string            `json:"created_at"`
	CheckpointHash string            `json:"checkpoint_hash"`
}

// ConfigLock pins the canonicalization, hashing, and schema parameters a
// DCL installation was created under. Any mismatch against the kernel's
// built-in expectations fails integrity verification outright.
type ConfigLock struct {
	Mode                    string `json:"mode"`
	HashAlgorithm           string `json:"hash_algorithm"`
	CanonicalizationVersion string `json:"canonicalization_version"`
	DCLVersion              string `json:"dcl_version"`
	StateSchemaVersion      string `json:"state_schema_version"`
}
