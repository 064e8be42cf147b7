package scanerr

import (
	"fmt"
	"strings"
)

// Flag constants referenced throughout §4 and the boundary scenarios of
// spec.md §8. Parameterized flags are built with the Flag* helper
// functions below rather than ad hoc fmt.Sprintf calls scattered through
// the codebase.
const (
	FlagDispatchDuplicateModule = "DISPATCH:DUPLICATE_MODULE"
	FlagScanMaxDepth            = "SCAN:MAX_DEPTH"
	FlagScanAborted             = "SCAN:ABORTED"
	FlagDispositionerError      = "DISPOSITIONER:ERROR"
	FlagFrameworkError          = "FRAMEWORK:ERROR"
)

// FlagDispatchMissingModule names the flag for an action that references a
// module absent from the module table (spec.md §4.3(b)).
func FlagDispatchMissingModule(module string) string {
	return fmt.Sprintf("DISPATCH:MISSING_MODULE:%s", module)
}

// FlagDispatchBadOptions names the runtime DispatchConfigError flag
// (spec.md §7).
func FlagDispatchBadOptions(module string) string {
	return fmt.Sprintf("DISPATCH:BAD_OPTIONS:%s", module)
}

// FlagModuleTimeout names the per-module timeout flag (spec.md §4.4 step 2).
func FlagModuleTimeout(module string) string {
	return fmt.Sprintf("MODULE:TIMEOUT:%s", module)
}

// FlagModuleError names the per-module uncaught-error flag (spec.md §4.4
// error trapping).
func FlagModuleError(module string) string {
	return fmt.Sprintf("MODULE:ERROR:%s", module)
}

// FlagModuleChildLimit names the per-module child-overflow flag (spec.md
// §4.4 step 4).
func FlagModuleChildLimit(module string) string {
	return fmt.Sprintf("MODULE:CHILD_LIMIT:%s", module)
}

// FlagMetadataCoerced names the non-JSON-representable-value flag (spec.md
// §6.3).
func FlagMetadataCoerced(module string) string {
	return fmt.Sprintf("METADATA:COERCED:%s", module)
}

// FlagScanCap names a scan-level resource cap flag, e.g. SCAN:MAX_OBJECTS
// or SCAN:MAX_BYTES (spec.md §7: "ResourceExceeded... Flag SCAN:<CAP>").
func FlagScanCap(cap ResourceCap) string {
	return fmt.Sprintf("SCAN:%s", strings.ToUpper(string(cap)))
}

// FlagDisposition names the terminal disposition flag added to the root
// object (spec.md §4.5).
func FlagDisposition(disposition string) string {
	return fmt.Sprintf("DISPOSITION:%s", disposition)
}

// MetaDispositioner is the namespace the dispositioner writes its own
// verdict into (spec.md §4.5).
const MetaDispositioner = "DISPOSITIONER"

// MetaDispatch is the namespace the dispatcher writes matched dispatch-rule
// meta into, keyed by rule name (spec.md §4.2's MatchSet "meta: map" is
// otherwise discarded once a rule's actions are resolved).
const MetaDispatch = "DISPATCH"

// MetaScanFailures is the namespace the runtime appends uncaught-module
// incidents into (spec.md §4.4 error trapping).
const MetaScanFailures = "SCAN_FAILURES"
