package adapter

import "github.com/tkogut/scalebridge/internal/types"

// Binding names a manufacturer/model pairing known to speak a given
// protocol cleanly. It exists for diagnostics and documentation only — the
// single stateless Adapter's behavior never branches on it. Adding a model
// that speaks an already-known protocol needs no entry here at all.
type Binding struct {
	Manufacturer string
	Model        string
	Protocol     types.Protocol
}

// Registry lists the bindings this module was built and tested against.
var Registry = []Binding{
	{Manufacturer: "Rinstrum", Model: "C320", Protocol: types.ProtocolRINCMD},
	{Manufacturer: "Dini Argeo", Model: "DFW", Protocol: types.ProtocolDINIASCII},
}

// Known reports whether (manufacturer, model, protocol) matches a listed
// binding. Unknown combinations are not rejected — they're simply
// unverified; the command map still drives everything.
func Known(manufacturer, model string, proto types.Protocol) bool {
	for _, b := range Registry {
		if b.Manufacturer == manufacturer && b.Model == model && b.Protocol == proto {
			return true
		}
	}
	return false
}
