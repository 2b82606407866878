package types

import "time"

// ReadKind tags which quantity a parsed frame reported, when the frame
// itself carries that information (RINCMD pattern #1's command code,
// pattern #2's status char). Frames that don't carry it (DINI_ASCII, RINCMD
// pattern #3) report ReadKindUnspecified; their gross and net quantities
// both carry the single parsed value.
type ReadKind int

const (
	ReadKindUnspecified ReadKind = iota
	ReadKindGross
	ReadKindNet
)

// WeightReading is the uniform result of a read command (spec.md §3).
type WeightReading struct {
	GrossWeight float64   `json:"gross_weight"`
	NetWeight   float64   `json:"net_weight"`
	Unit        string    `json:"unit"`
	IsStable    bool      `json:"is_stable"`
	Timestamp   time.Time `json:"timestamp"`
}

// AckResult carries the acknowledgement text for tare/zero commands,
// which are not readings (spec.md §4.5).
type AckResult struct {
	Message string `json:"message"`
}

// Recognized units, used by internal/wireproto to validate a parsed unit
// string.
const (
	UnitKilogram = "kg"
	UnitPound    = "lb"
	UnitGram     = "g"
)

// ValidUnit reports whether u is one of the parser's recognized units.
func ValidUnit(u string) bool {
	switch u {
	case UnitKilogram, UnitPound, UnitGram:
		return true
	default:
		return false
	}
}
