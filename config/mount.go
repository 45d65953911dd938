package config

const (
	DefaultFsName = "webvfs"
	DefaultName   = "webvfs"
)

// MountOptions holds high-level settings for mounting.
// No go-fuse types are exposed here.
type MountOptions struct {
	// Debug enables fuse debug logs
	Debug bool

	FsName string `validate:"required"` // mount's FsName
	Name   string `validate:"required"` // mount's Name
}
