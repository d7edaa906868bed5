package domain

// CompressionAction is an intended compression of one file
type CompressionAction struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Size   int64  `json:"size" yaml:"size"`
}

// CompressionResult is the outcome of compressing one file
type CompressionResult struct {
	Source           string  `json:"source" yaml:"source"`
	Target           string  `json:"target" yaml:"target"`
	OriginalSize     int64   `json:"original_size" yaml:"original_size"`
	CompressedSize   int64   `json:"compressed_size" yaml:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent" yaml:"reduction_percent"`
	Error            string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the file could not be compressed
func (r CompressionResult) Failed() bool {
	return r.Error != ""
}

// CompressionOutcome summarizes one run of the compress step
type CompressionOutcome struct {
	DryRun     bool                `json:"dry_run" yaml:"dry_run"`
	Actions    []CompressionAction `json:"actions,omitempty" yaml:"actions,omitempty"`
	Results    []CompressionResult `json:"results,omitempty" yaml:"results,omitempty"`
	Compressed int                 `json:"compressed" yaml:"compressed"`
	Failed     int                 `json:"failed" yaml:"failed"`
	BytesSaved int64               `json:"bytes_saved" yaml:"bytes_saved"`
}
