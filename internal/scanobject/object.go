// Package scanobject implements C1 of the scanning core: the immutable
// submission envelope (ExternalVars) and the mutable-by-contract scan tree
// node (Object), per spec.md §3.
package scanobject

import (
	"crypto/md5"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/google/uuid"
)

// HashMethod selects the algorithm used to compute Object.ObjectHash
// (spec.md §3.2, configurable via config.ObjectHashMethod).
type HashMethod string

const (
	HashMD5    HashMethod = "md5"
	HashSHA256 HashMethod = "sha256"
)

// ErrForeignNamespace is returned by AddMetadata when a module attempts to
// write into another module's metadata namespace (spec.md I5).
var ErrForeignNamespace = errors.New("scanobject: module may not write another module's metadata namespace")

// Object is one node of a scan tree: the root submission or any artifact
// extracted from it. See spec.md §3.2 for the full invariant list (I1-I6).
type Object struct {
	buffer []byte

	UUID       string
	ParentUUID string
	RootUUID   string
	Depth      int
	Filename   string

	ObjectHash string
	ObjectSize int

	ObjectType  *StringSet
	Flags       *StringSet
	ContentType *StringSet

	// Metadata maps module name to that module's private field namespace.
	Metadata map[string]map[string]Value

	ScanModules []string

	SourceModule string

	// executingModule tracks which module the runtime is currently
	// invoking against this object, so AddMetadata can enforce I5 without
	// every module call threading its own name through every API. Set and
	// cleared via BeginModule/EndModule around each metadata commit: the
	// runtime's commit of a module's returned entries, and the dispatcher's
	// and dispositioner's writes under their own pseudo-module names.
	executingModule string
}

func newHasher(method HashMethod) hash.Hash {
	switch method {
	case HashSHA256:
		return sha256.New()
	default:
		return md5.New()
	}
}

// NewRoot constructs the root Object of a scan from raw bytes (spec.md
// §4.1 "construct-root"). Construction is total: the only failure mode
// (an unsupported hash method) can't occur here since newHasher always
// falls back to MD5, matching the "infallible unless the hash function
// fails" contract with a hash function that never fails.
func NewRoot(buf []byte, ev ExternalVars, method HashMethod) *Object {
	id := uuid.New().String()
	o := &Object{
		buffer:      append([]byte(nil), buf...),
		UUID:        id,
		ParentUUID:  "",
		RootUUID:    id,
		Depth:       0,
		Filename:    ev.Filename,
		ObjectType:  NewStringSet(),
		Flags:       NewStringSet(),
		ContentType: NewStringSet(),
		Metadata:    make(map[string]map[string]Value),
		ScanModules: nil,
	}
	o.computeHash(method)
	return o
}

// NewChild constructs a child Object produced by sourceModule out of parent
// (spec.md §4.1 "construct-child"): inherits RootUUID, Depth+1, and the
// producing module's name.
func NewChild(buf []byte, parent *Object, sourceModule, filename string, method HashMethod) *Object {
	o := &Object{
		buffer:       append([]byte(nil), buf...),
		UUID:         uuid.New().String(),
		ParentUUID:   parent.UUID,
		RootUUID:     parent.RootUUID,
		Depth:        parent.Depth + 1,
		Filename:     filename,
		ObjectType:   NewStringSet(),
		Flags:        NewStringSet(),
		ContentType:  NewStringSet(),
		Metadata:     make(map[string]map[string]Value),
		ScanModules:  nil,
		SourceModule: sourceModule,
	}
	o.computeHash(method)
	return o
}

func (o *Object) computeHash(method HashMethod) {
	h := newHasher(method)
	h.Write(o.buffer)
	o.ObjectHash = fmt.Sprintf("%x", h.Sum(nil))
	o.ObjectSize = len(o.buffer)
}

// Buffer returns a read-only view of the object's bytes. Per spec.md §3.2
// the buffer is "read-only after construction"; callers must not mutate
// the returned slice.
func (o *Object) Buffer() []byte {
	return o.buffer
}

// AddFlag appends a flag, idempotently (spec.md I6: flags only grow).
func (o *Object) AddFlag(flag string) {
	o.Flags.Add(flag)
}

// AddFlags appends multiple flags in order.
func (o *Object) AddFlags(flags ...string) {
	o.Flags.AddAll(flags...)
}

// BeginModule marks module as the one currently writing metadata on o, so
// AddMetadata/AppendMetadata refuse writes into any other namespace until
// EndModule. The runtime brackets its commit of a module's returned entries
// with it; it is not set while a module's Run is executing.
func (o *Object) BeginModule(module string) { o.executingModule = module }

// EndModule clears the executing-module marker.
func (o *Object) EndModule() { o.executingModule = "" }

// AddMetadata writes field=value into module's namespace. It refuses the
// write with ErrForeignNamespace if another module is currently executing
// against this object (I5: metadata[M] is written only by module M).
func (o *Object) AddMetadata(module, field string, value Value) error {
	if o.executingModule != "" && o.executingModule != module {
		return fmt.Errorf("%w: %s attempted to write into %s's namespace", ErrForeignNamespace, o.executingModule, module)
	}
	ns, ok := o.Metadata[module]
	if !ok {
		ns = make(map[string]Value)
		o.Metadata[module] = ns
	}
	ns[field] = value
	return nil
}

// AppendMetadata appends value onto a list-valued field in module's
// namespace, creating the list if absent. The runtime uses it for
// SCAN_FAILURES records (spec.md §4.4 error trapping); a module's own
// returned entries are committed with AddMetadata instead.
func (o *Object) AppendMetadata(module, field string, value Value) error {
	if o.executingModule != "" && o.executingModule != module {
		return fmt.Errorf("%w: %s attempted to write into %s's namespace", ErrForeignNamespace, o.executingModule, module)
	}
	ns, ok := o.Metadata[module]
	if !ok {
		ns = make(map[string]Value)
		o.Metadata[module] = ns
	}
	existing, ok := ns[field]
	if !ok || existing.Kind() != KindList {
		ns[field] = NewList([]Value{value})
		return nil
	}
	items := append(existing.list, value)
	ns[field] = NewList(items)
	return nil
}

// HasRun reports whether module already appears in ScanModules.
func (o *Object) HasRun(module string) bool {
	for _, m := range o.ScanModules {
		if m == module {
			return true
		}
	}
	return false
}

// RecordModuleRun appends module to ScanModules (spec.md §4.1
// "record-module-run"). A module already present is not appended again
// unless rescanAllowed is true (I4: "A module name appears in scan_modules
// at most once per object unless it is in ExternalVars.rescan") — callers
// pass ExternalVars.AllowsRescan(module) so a permitted re-run is visible
// in the audit trail instead of being silently deduplicated.
func (o *Object) RecordModuleRun(module string, rescanAllowed bool) {
	if o.HasRun(module) && !rescanAllowed {
		return
	}
	o.ScanModules = append(o.ScanModules, module)
}
