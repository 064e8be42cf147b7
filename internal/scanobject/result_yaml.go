package scanobject

import (
	k8syaml "sigs.k8s.io/yaml"
)

// ToYAML renders a Result through its JSON tags into YAML, for the
// alternate-format dumps integration tests and operators reach for
// alongside the canonical JSON serialization (spec.md §6.3 specifies JSON;
// this is a bridge on top, not a second serialization format for the core
// itself). sigs.k8s.io/yaml round-trips through encoding/json so it honors
// the same `json:"..."` tags BuildResult's FileEntry already carries,
// rather than needing a parallel set of yaml tags.
func (r Result) ToYAML() ([]byte, error) {
	return k8syaml.Marshal(r)
}

// FromYAML parses a Result previously produced by ToYAML.
func FromYAML(data []byte) (Result, error) {
	var r Result
	err := k8syaml.Unmarshal(data, &r)
	return r, err
}
