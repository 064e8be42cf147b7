package modules

import "github.com/Nigelli/laikaboss/internal/runtime"

// RegisterBuiltins adds the illustrative modules this package ships into
// r. Deployments add their own format-specific modules the same way;
// spec.md §9's registry hint is exactly this — "each module is a named
// implementation... registered at build time".
func RegisterBuiltins(r *runtime.Registry) {
	r.Register(Default{})
	r.Register(Metadata{})
	r.Register(ExplodeLoop{})
}
