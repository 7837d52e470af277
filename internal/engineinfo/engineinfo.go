// Package engineinfo keeps the per-process record of scanner and signature
// version metadata. An engine constructs one instance, mutates it as
// signature updates are learned and the instrumentation wrapper merges it
// into every scan result it hands back.
package engineinfo

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/polyswarm/microengine-go/internal/model"
	"github.com/polyswarm/microengine-go/internal/verdict"
)

// field pairs a canonical field name with the external alias used in the
// verdict document's scanner block. Update accepts either name.
type field struct {
	canonical string
	alias     string
}

var fields = []field{
	{"operating_system", "platform"},
	{"architecture", "machine"},
	{"engine_name", "name"},
	{"wrapper_version", "version"},
	{"engine_version", "vendor_version"},
	{"definitions_version", "signatures_version"},
	{"definitions_timestamp", "signatures_timestamp"},
}

// EngineInfo is safe for concurrent reads during merges; concurrent Update
// calls are serialized by the internal lock, callers remain responsible for
// not racing an Update against an in-flight merge when ordering matters.
type EngineInfo struct {
	mx  sync.RWMutex
	set map[string]string // canonical name -> explicitly set value
}

// New creates a record with operating system and architecture already set,
// those two are always present in the scanner block. Everything else is
// included only once explicitly set.
func New() *EngineInfo {
	return &EngineInfo{
		set: map[string]string{
			"operating_system": runtime.GOOS,
			"architecture":     runtime.GOARCH,
		},
	}
}

// Update applies values keyed by either canonical or alias field names.
// Unrecognized keys are ignored, not an error.
func (e *EngineInfo) Update(values map[string]string) {
	e.mx.Lock()
	defer e.mx.Unlock()
	for _, f := range fields {
		if v, ok := values[f.canonical]; ok {
			e.set[f.canonical] = v
		} else if v, ok := values[f.alias]; ok {
			e.set[f.canonical] = v
		}
	}
}

// ScannerInfo returns the explicitly set fields keyed by their alias names,
// in the shape the verdict document's scanner block expects.
func (e *EngineInfo) ScannerInfo() map[string]string {
	e.mx.RLock()
	defer e.mx.RUnlock()
	info := make(map[string]string, len(e.set))
	for _, f := range fields {
		if v, ok := e.set[f.canonical]; ok {
			info[f.alias] = v
		}
	}
	return info
}

// SignatureInfo combines signature version and release timestamp into a
// single easily logged value.
func (e *EngineInfo) SignatureInfo() string {
	e.mx.RLock()
	defer e.mx.RUnlock()
	return fmt.Sprintf("%s <%s>", e.set["definitions_version"], e.set["definitions_timestamp"])
}

// Merge injects the scanner identity into the result's metadata document and
// leaves Metadata in serialized string form. An absent document is
// synthesized with an empty malware family. Merge is idempotent as long as
// no Update happens in between. A malformed existing document is a defect
// and the parse error propagates.
func (e *EngineInfo) Merge(res *model.ScanResult) error {
	v, err := verdict.Extract(res.Metadata)
	if err != nil {
		return err
	}
	if v == nil {
		v = verdict.New().SetMalwareFamily("")
	}
	v.SetScanner(e.ScannerInfo())
	s, err := v.JSON()
	if err != nil {
		return err
	}
	res.Metadata = s
	return nil
}
