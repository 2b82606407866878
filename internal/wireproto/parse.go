package wireproto

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tkogut/scalebridge/internal/types"
)

// ParsedFrame is the result of parsing one response frame: either a
// reading (with a hint at which quantity it reports, if the frame itself
// carries that information) or an acknowledgement.
type ParsedFrame struct {
	Reading  *types.WeightReading
	ReadKind types.ReadKind
	Ack      *types.AckResult
}

// Known RINCMD command codes that distinguish a gross-read response from a
// net-read response, per the example in spec.md §4.2. A code outside this
// pair still parses as a reading; its ReadKind is simply Unspecified, so the
// adapter's mismatch warning never fires for it (spec.md §9, Open Question
// (b)).
const (
	rincmdGrossCode = "20050026"
	rincmdNetCode   = "20050025"
)

var (
	rincmdPattern1 = regexp.MustCompile(`^~?(\d{8})([+-]?)(\d+(?:\.\d+)?)(kg|lb)~?$`)
	rincmdPattern2 = regexp.MustCompile(`^:\s*([+-]?\d+(?:\.\d+)?)\s+(kg|lb)\s+([GNTZ])$`)
	rincmdPattern3 = regexp.MustCompile(`^([SU])\s+([+-]?\d+(?:\.\d+)?)\s+(kg|lb)$`)

	diniPattern = regexp.MustCompile(`^(~?)([+-]?\d+(?:\.\d+)?)\s*(kg|lb|g)(~?)$`)

	// looseNumberUnit flags a frame that looks like a botched attempt at a
	// weight reading (has a number and a recognized unit token) versus a
	// genuine non-numeric ack/echo. Used only for the fallback decision
	// below, never to extract a value.
	looseNumberUnit = regexp.MustCompile(`(?i)[+-]?\d+(\.\d+)?\s*(kg|lb|g)\b`)
)

// ParseRINCMD parses a single RINCMD response frame, trying the three
// pattern shapes from spec.md §4.2 in order, first match wins.
func ParseRINCMD(raw string) (*ParsedFrame, error) {
	text := strings.TrimSpace(strings.TrimRight(raw, "\r"))

	if m := rincmdPattern1.FindStringSubmatch(text); m != nil {
		code, sign, numStr, unit := m[1], m[2], m[3], strings.ToLower(m[4])
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, invalidFrame(raw)
		}
		if sign == "-" {
			val = -val
		}
		kind := types.ReadKindUnspecified
		switch code {
		case rincmdGrossCode:
			kind = types.ReadKindGross
		case rincmdNetCode:
			kind = types.ReadKindNet
		}
		reading := &types.WeightReading{Unit: unit, IsStable: !strings.Contains(text, "~")}
		if kind == types.ReadKindNet {
			reading.NetWeight = val
			reading.GrossWeight = val
		} else {
			reading.GrossWeight = val
			reading.NetWeight = val
		}
		return &ParsedFrame{Reading: reading, ReadKind: kind}, nil
	}

	if m := rincmdPattern2.FindStringSubmatch(text); m != nil {
		numStr, unit, status := m[1], strings.ToLower(m[2]), m[3]
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, invalidFrame(raw)
		}
		if status == "T" || status == "Z" {
			return &ParsedFrame{Ack: &types.AckResult{Message: text}}, nil
		}
		reading := &types.WeightReading{Unit: unit, IsStable: true}
		kind := types.ReadKindGross
		if status == "N" {
			kind = types.ReadKindNet
			reading.NetWeight = val
			reading.GrossWeight = val
		} else {
			reading.GrossWeight = val
			reading.NetWeight = val
		}
		return &ParsedFrame{Reading: reading, ReadKind: kind}, nil
	}

	if m := rincmdPattern3.FindStringSubmatch(text); m != nil {
		stability, numStr, unit := m[1], m[2], strings.ToLower(m[3])
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, invalidFrame(raw)
		}
		reading := &types.WeightReading{
			Unit:        unit,
			IsStable:    stability == "S",
			GrossWeight: val,
			NetWeight:   val,
		}
		return &ParsedFrame{Reading: reading, ReadKind: types.ReadKindUnspecified}, nil
	}

	return fallbackAck(raw, text)
}

// ParseDINIASCII parses a single DINI_ASCII response frame.
func ParseDINIASCII(raw string) (*ParsedFrame, error) {
	text := strings.TrimSpace(raw)

	if m := diniPattern.FindStringSubmatch(text); m != nil {
		leadTilde, numStr, unit, trailTilde := m[1], m[2], strings.ToLower(m[3]), m[4]
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, invalidFrame(raw)
		}
		reading := &types.WeightReading{
			Unit:        unit,
			IsStable:    leadTilde == "" && trailTilde == "",
			GrossWeight: val,
			NetWeight:   val,
		}
		// DINI_ASCII doesn't self-describe gross vs net; both quantities
		// carry the parsed value and the adapter returns the reading as is,
		// with no gross/net tag attached.
		return &ParsedFrame{Reading: reading, ReadKind: types.ReadKindUnspecified}, nil
	}

	return fallbackAck(raw, text)
}

// Parse dispatches to the protocol-specific parser.
func Parse(raw string, proto types.Protocol) (*ParsedFrame, error) {
	switch proto {
	case types.ProtocolDINIASCII:
		return ParseDINIASCII(raw)
	default: // RINCMD and CUSTOM share the RINCMD grammar
		return ParseRINCMD(raw)
	}
}

// fallbackAck implements the tare/zero ack handling from spec.md §4.2: a
// frame that matches no known reading shape is an acknowledgement (empty
// line or echoed command) unless it looks like a botched numeric reading,
// in which case it's a genuine protocol error.
func fallbackAck(raw, trimmed string) (*ParsedFrame, error) {
	if looseNumberUnit.MatchString(trimmed) {
		return nil, invalidFrame(raw)
	}
	return &ParsedFrame{Ack: &types.AckResult{Message: trimmed}}, nil
}

func invalidFrame(raw string) error {
	return &types.ProtocolError{Raw: raw}
}

// StampNow sets Timestamp on a reading to the current instant, per the
// invariant that timestamp is set at parse time, never device-reported.
func StampNow(r *types.WeightReading) {
	r.Timestamp = time.Now().UTC()
}
