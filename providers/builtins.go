package providers

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/providers/disk"
	"github.com/brettbedarf/webvfs/providers/memory"
	"github.com/brettbedarf/webvfs/providers/remote"
)

// NOTE: embedded sources need an fs.FS from the host binary, so they are
// registered in code with a factory closing over it rather than as a builtin.

var validate = validator.New()

// MemorySource seeds a memory provider with files keyed by virtual path
type MemorySource struct {
	webvfs.SourceConfig
	Files map[string]string `json:"files,omitempty"`
}

// DiskSource serves a local directory
type DiskSource struct {
	webvfs.SourceConfig
	Root string `json:"root" validate:"required"`
}

// RegisterBuiltins registers all built-in source types by default
// or only the specific ones if keys are provided
func (r *Registry) RegisterBuiltins(types ...webvfs.SourceType) {
	if len(types) == 0 {
		// Include all built-in source types here when adding implementations
		types = append(types, webvfs.MemorySourceType, webvfs.DiskSourceType, webvfs.HTTPSourceType)
	}

	for _, key := range types {
		switch key {
		case webvfs.MemorySourceType:
			r.Register(key, newMemory)
		case webvfs.DiskSourceType:
			r.Register(key, newDisk)
		case webvfs.HTTPSourceType:
			r.Register(key, newRemote)
		}
	}
}

func newMemory(raw []byte) (webvfs.PathProvider, error) {
	var src MemorySource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	p := memory.New()
	if err := p.WriteFiles(src.Files); err != nil {
		return nil, err
	}
	return p, nil
}

func newDisk(raw []byte) (webvfs.PathProvider, error) {
	var src DiskSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	if err := validate.Struct(src); err != nil {
		return nil, fmt.Errorf("disk source: %w: %w", webvfs.ErrInvalidArgument, err)
	}
	return disk.New(src.Root)
}

func newRemote(raw []byte) (webvfs.PathProvider, error) {
	var src remote.Source
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	if err := validate.Struct(src); err != nil {
		return nil, fmt.Errorf("http source: %w: %w", webvfs.ErrInvalidArgument, err)
	}
	return remote.New(nil, src)
}
