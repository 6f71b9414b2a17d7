package port

// ArtifactStore persists the JSON artifacts passed between stages.
type ArtifactStore interface {
	// Save writes v atomically to path, keeping the previous file as a backup.
	Save(path string, v any) error

	// Load reads path into v.
	Load(path string, v any) error
}
