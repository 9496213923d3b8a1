package reqtx

import (
	"fmt"
	"regexp"
)

// DefaultQueryCapability is the capability name that resolves to the live
// scoped query interface. configurable per Bridge with WithQueryCapability.
const DefaultQueryCapability = "query"

// leading arities recognized by the surrounding pipeline. the calling
// framework dispatches handlers by their declared shape, so Wrap and
// WrapError each accept exactly one of these.
const (
	leadingStandard     = 3 // request, response, continuation
	leadingErrorChannel = 4 // error, request, response, continuation
)

// modelCapability is the naming pattern for model capabilities.
var modelCapability = regexp.MustCompile(`^[A-Z]\w*$`)

// Signature declares a handler's shape: how many leading framework-standard
// parameters it has, and which trailing capabilities it wants injected.
// this replaces the source-text parameter sniffing of dynamic frameworks with
// an explicit declaration validated once, at wrap time.
type Signature struct {
	// Leading is the count of framework-standard parameters: 3 for a standard
	// continuation-style handler, 4 for an error-channel handler.
	Leading int

	// Capabilities are the trailing injected parameters, in order. each entry
	// is either the query-capability name or a registered model name matching
	// ^[A-Z]\w*$.
	Capabilities []string
}

// validate checks the declaration against the bridge's registry and the wrap
// entry point's expected arity. any violation is a configuration error.
func (b *Bridge) validateSignature(sig Signature, wantLeading int) error {
	if sig.Leading != leadingStandard && sig.Leading != leadingErrorChannel {
		return &SignatureError{
			Subject: "Leading",
			Reason:  fmt.Sprintf("must be %d or %d, got %d", leadingStandard, leadingErrorChannel, sig.Leading),
		}
	}
	if sig.Leading != wantLeading {
		return &SignatureError{
			Subject: "Leading",
			Reason:  fmt.Sprintf("declares arity %d but the wrap entry point binds arity %d", sig.Leading, wantLeading),
		}
	}
	for _, name := range sig.Capabilities {
		if name == b.queryName {
			continue
		}
		if !modelCapability.MatchString(name) {
			return &SignatureError{
				Subject: name,
				Reason:  fmt.Sprintf("matches neither the query capability %q nor a model name (^[A-Z]\\w*$)", b.queryName),
			}
		}
		if _, ok := b.registry.Model(name); !ok {
			return &SignatureError{
				Subject: name,
				Reason:  "model not registered",
			}
		}
	}
	return nil
}
