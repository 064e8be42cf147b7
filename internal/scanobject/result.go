package scanobject

import (
	"encoding/base64"
	"time"
)

// Verbosity controls the projection depth of a serialized ScanResult
// (spec.md §3.3, §4.6).
type Verbosity string

const (
	Minimal    Verbosity = "MINIMAL"
	Full       Verbosity = "FULL"
	Everything Verbosity = "EVERYTHING"
	NoBuffer   Verbosity = "NO_BUFFER"
)

// FileEntry is the serialized projection of one Object within a
// ScanResult's files map (spec.md §6.3).
type FileEntry struct {
	UUID        string                 `json:"uuid"`
	Parent      string                 `json:"parent,omitempty"`
	Depth       int                    `json:"depth"`
	Filename    string                 `json:"filename,omitempty"`
	Hash        string                 `json:"hash"`
	Size        int                    `json:"size"`
	ObjectType  []string               `json:"objectType"`
	ContentType []string               `json:"contentType"`
	Flags       []string               `json:"flags"`
	ScanModules []string               `json:"scanModules"`
	Metadata    map[string]interface{} `json:"metadata"`
	Buffer      string                 `json:"buffer,omitempty"`
}

// Result is the top-level artifact returned by scandriver.Scan (spec.md
// §3.3).
type Result struct {
	RootUID   string               `json:"rootUID"`
	Source    string               `json:"source"`
	Level     Verbosity            `json:"level"`
	StartTime time.Time            `json:"startTime"`
	Files     map[string]FileEntry `json:"files"`
}

// BuildResult walks tree (keyed by uuid) and projects it at the requested
// verbosity (spec.md §3.3, §4.6 "Output shaping"). Any metadata value that
// cannot be represented in JSON is coerced to its string form and the
// object receives a METADATA:COERCED:<module> flag (spec.md §6.3) — this
// happens ahead of BuildResult via FromAny at write time, so metadata
// values reaching here are always already JSON-total.
func BuildResult(source string, start time.Time, rootUUID string, tree map[string]*Object, level Verbosity) Result {
	files := make(map[string]FileEntry, len(tree))
	includeMetadata := level != Minimal
	includeBuffer := level == Everything

	for id, obj := range tree {
		if level == Minimal && id != rootUUID {
			continue
		}

		entry := FileEntry{
			UUID:        obj.UUID,
			Parent:      obj.ParentUUID,
			Depth:       obj.Depth,
			Filename:    obj.Filename,
			Hash:        obj.ObjectHash,
			Size:        obj.ObjectSize,
			ObjectType:  obj.ObjectType.Slice(),
			ContentType: obj.ContentType.Slice(),
			Flags:       obj.Flags.Slice(),
			ScanModules: append([]string(nil), obj.ScanModules...),
		}

		if includeMetadata {
			entry.Metadata = projectMetadata(obj.Metadata)
		}

		if includeBuffer {
			entry.Buffer = base64.StdEncoding.EncodeToString(obj.Buffer())
		}

		files[id] = entry
	}

	return Result{
		RootUID:   rootUUID,
		Source:    source,
		Level:     level,
		StartTime: start,
		Files:     files,
	}
}

func projectMetadata(md map[string]map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(md))
	for module, fields := range md {
		fieldOut := make(map[string]interface{}, len(fields))
		for field, v := range fields {
			fieldOut[field] = v.ToJSON()
		}
		out[module] = fieldOut
	}
	return out
}
