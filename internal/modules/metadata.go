package modules

import (
	"bytes"
	"context"

	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

// magicSignature is one entry of the small magic-number family table
// Metadata recognizes. It is intentionally tiny — a stand-in for the
// format-detection a real format module would do, not a replacement for
// one (spec.md §1 scopes the ~80 format modules out entirely).
type magicSignature struct {
	family string
	prefix []byte
}

var magicTable = []magicSignature{
	{family: "zip", prefix: []byte("PK\x03\x04")},
	{family: "pdf", prefix: []byte("%PDF-")},
	{family: "pe", prefix: []byte("MZ")},
	{family: "gzip", prefix: []byte{0x1f, 0x8b}},
	{family: "elf", prefix: []byte{0x7f, 'E', 'L', 'F'}},
}

// Metadata inspects an object's raw bytes for a recognized magic-number
// family and records it under its own namespace as field "family", adding
// a matching METADATA:FAMILY:<family> flag. It never emits children.
type Metadata struct{}

func (Metadata) Name() string { return "metadata" }

func (Metadata) Run(ctx context.Context, o *scanobject.Object, sctx runtime.ScanContext, depth int, options map[string]string) (runtime.Output, error) {
	buf := o.Buffer()
	for _, sig := range magicTable {
		if bytes.HasPrefix(buf, sig.prefix) {
			return runtime.Output{
				Flags: []string{"METADATA:FAMILY:" + sig.family},
				Metadata: []runtime.MetadataEntry{
					{Field: "family", Value: scanobject.NewString(sig.family)},
				},
			}, nil
		}
	}

	return runtime.Output{
		Metadata: []runtime.MetadataEntry{
			{Field: "family", Value: scanobject.NewString("unknown")},
		},
	}, nil
}
