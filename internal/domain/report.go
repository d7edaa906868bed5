package domain

import "time"

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid checks if the priority is a known value
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Recommendation is a single prioritized remediation entry
type Recommendation struct {
	Priority    Priority `json:"priority" yaml:"priority"`
	Action      string   `json:"action" yaml:"action"`
	Description string   `json:"description" yaml:"description"`

	// FilesAffected is the number of files the action touches (0 = not applicable)
	FilesAffected int `json:"files_affected,omitempty" yaml:"files_affected,omitempty"`

	// EstimatedSavingsBytes is a measured savings estimate
	EstimatedSavingsBytes int64 `json:"estimated_savings_bytes,omitempty" yaml:"estimated_savings_bytes,omitempty"`

	// EstimatedSavings is an advisory, unmeasured savings estimate
	EstimatedSavings string `json:"estimated_savings,omitempty" yaml:"estimated_savings,omitempty"`

	Benefit string `json:"benefit,omitempty" yaml:"benefit,omitempty"`
}

// ProposedBucket is one entry of the target logical layout
type ProposedBucket struct {
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
	Contents    []string `json:"contents" yaml:"contents" mapstructure:"contents"`
}

// Canonical bucket names of the proposed layout
const (
	BucketCore      = "core"
	BucketData      = "data"
	BucketBackups   = "backups"
	BucketCache     = "cache"
	BucketCloudSync = "cloud_sync"
	BucketLogs      = "logs"
)

// CanonicalBuckets lists the bucket names every proposed layout must carry
func CanonicalBuckets() []string {
	return []string{BucketCore, BucketData, BucketBackups, BucketCache, BucketCloudSync, BucketLogs}
}

// OrganizationPlan describes the current layout and the proposed end state
type OrganizationPlan struct {
	CurrentStructure  *DirectoryNode            `json:"current_structure" yaml:"current_structure"`
	ProposedStructure map[string]ProposedBucket `json:"proposed_structure" yaml:"proposed_structure"`
	MigrationSteps    []string                  `json:"migration_steps" yaml:"migration_steps"`
}

// StorageAnalysis holds the report's computed metrics
type StorageAnalysis struct {
	TotalSize             int64 `json:"total_size" yaml:"total_size"`
	FilesScanned          int   `json:"files_scanned" yaml:"files_scanned"`
	DuplicateGroups       int   `json:"duplicate_files" yaml:"duplicate_files"`
	DuplicateSpaceWasted  int64 `json:"duplicate_space_wasted" yaml:"duplicate_space_wasted"`
	CompressionCandidates int   `json:"compression_candidates" yaml:"compression_candidates"`
	OffloadCandidates     int   `json:"offload_candidates" yaml:"offload_candidates"`
	HashFailures          int   `json:"hash_failures" yaml:"hash_failures"`
}

// Diagnostic records a file or directory that was skipped during a run
type Diagnostic struct {
	Path    string `json:"path" yaml:"path"`
	Phase   string `json:"phase" yaml:"phase"`
	Message string `json:"message" yaml:"message"`
}

// Report is the terminal aggregate of a single run
type Report struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Root        string        `json:"root" yaml:"root"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`

	Analysis StorageAnalysis `json:"storage_analysis" yaml:"storage_analysis"`

	// Duplicates maps a short digest prefix to the member paths
	Duplicates map[string][]string `json:"duplicates" yaml:"duplicates"`

	CompressionCandidates []string `json:"compression_candidates" yaml:"compression_candidates"`
	OffloadCandidates     []string `json:"offload_candidates" yaml:"offload_candidates"`

	OrganizationPlan OrganizationPlan `json:"organization_plan" yaml:"organization_plan"`
	Recommendations  []Recommendation `json:"recommendations" yaml:"recommendations"`
	Diagnostics      []Diagnostic     `json:"diagnostics" yaml:"diagnostics"`

	// Compression is set only when the compress step ran
	Compression *CompressionOutcome `json:"compression,omitempty" yaml:"compression,omitempty"`

	// In-memory views, not serialized
	Groups               []DuplicateGroup `json:"-" yaml:"-"`
	CompressionCandidate *CandidateList   `json:"-" yaml:"-"`
	OffloadCandidate     *CandidateList   `json:"-" yaml:"-"`
}
