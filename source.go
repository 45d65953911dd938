package webvfs

// SourceType identifies a registered provider implementation, i.e. "memory", "disk"
type SourceType = string

const (
	MemorySourceType   SourceType = "memory"
	DiskSourceType     SourceType = "disk"
	EmbeddedSourceType SourceType = "embedded"
	HTTPSourceType     SourceType = "http"
)

// SourceConfig has the common fields of a provider source definition.
// Additional fields depend on Type and are decoded by the registered factory
// from the raw source document.
type SourceConfig struct {
	Type SourceType `json:"type" yaml:"type"`
	// Lower number = higher priority, defaults to list index
	Priority *int `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// FileSource is a constructed provider with its resolved priority
type FileSource struct {
	PathProvider
	Priority int
}
