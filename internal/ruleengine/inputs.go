package ruleengine

import "github.com/Nigelli/laikaboss/internal/scanobject"

// RuleInputs collects every rule-time input in one explicit struct, per
// spec.md §9's re-architecture hint ("Rather than passing a large context
// object implicitly, collect all rule-time inputs into an explicit
// RuleInputs struct and pass it to C2"). It is built once per object from
// that object's ExternalVars plus its own filename/content-type, and
// handed to Match — nothing else in the dispatcher threads ambient state
// into the matcher.
type RuleInputs struct {
	Filename      string
	ContentType   string
	Source        string
	ExtSourceTags string
	EphID         string
	SubmitID      string
}

// FromExternalVars builds a RuleInputs for one object, using its own
// filename (which may differ from the submission's, once a module has
// assigned one to a child) while keeping the rest of the envelope as-is.
func FromExternalVars(ev scanobject.ExternalVars, objectFilename string) RuleInputs {
	filename := objectFilename
	if filename == "" {
		filename = ev.Filename
	}
	return RuleInputs{
		Filename:      filename,
		ContentType:   ev.ContentType,
		Source:        ev.Source,
		ExtSourceTags: ev.CombinedSourceTags(),
		EphID:         ev.EphID,
		SubmitID:      ev.SubmitID,
	}
}

// AsExternals returns the values YARA's DefineVariable needs, keyed by the
// external-variable names spec.md §4.2 requires be exposed to rules.
func (ri RuleInputs) AsExternals() map[string]interface{} {
	return map[string]interface{}{
		"filename":      ri.Filename,
		"contentType":   ri.ContentType,
		"source":        ri.Source,
		"extSourceTags": ri.ExtSourceTags,
		"ephID":         ri.EphID,
		"submitID":      ri.SubmitID,
	}
}
