package scanobject

import "time"

// ExternalVars is the immutable envelope attached to every submission and
// propagated unchanged to every object produced within a scan (spec.md
// §3.1). It is built once by the caller of scandriver.Scan and never
// mutated by the framework or by modules.
type ExternalVars struct {
	Source        string            `mapstructure:"source" json:"source" yaml:"source"`
	EphID         string            `mapstructure:"eph_id" json:"ephID" yaml:"eph_id"`
	SubmitID      string            `mapstructure:"submit_id" json:"submitID" yaml:"submit_id"`
	ExtSourceTags []string          `mapstructure:"ext_source_tags" json:"extSourceTags" yaml:"ext_source_tags"`
	ExtMetadata   map[string]string `mapstructure:"ext_metadata" json:"extMetadata" yaml:"ext_metadata"`
	Filename      string            `mapstructure:"filename" json:"filename,omitempty" yaml:"filename,omitempty"`
	ContentType   string            `mapstructure:"content_type" json:"contentType,omitempty" yaml:"content_type,omitempty"`
	Timestamp     time.Time         `mapstructure:"timestamp" json:"timestamp" yaml:"timestamp"`

	// Rescan lists module names permitted to re-run on descendants of an
	// object that has already run them (spec.md §3.1, I4).
	Rescan []string `mapstructure:"rescan" json:"rescan,omitempty" yaml:"rescan,omitempty"`
}

// AllowsRescan reports whether module is in the rescan list.
func (ev ExternalVars) AllowsRescan(module string) bool {
	for _, m := range ev.Rescan {
		if m == module {
			return true
		}
	}
	return false
}

// CombinedSourceTags joins ExtSourceTags for rule-matcher external variable
// exposure (spec.md §4.2: "extSourceTags as a joined string").
func (ev ExternalVars) CombinedSourceTags() string {
	out := ""
	for i, tag := range ev.ExtSourceTags {
		if i > 0 {
			out += ","
		}
		out += tag
	}
	return out
}
