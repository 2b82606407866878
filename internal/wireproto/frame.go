// Package wireproto implements the outgoing command framing and incoming
// response parsing for the RINCMD and DINI_ASCII dialects (spec.md §4.2).
package wireproto

import "github.com/tkogut/scalebridge/internal/types"

// Delimiter returns the byte sequence internal/transport should read up to
// when waiting for a response to a command framed for proto.
func Delimiter(proto types.Protocol) []byte {
	switch proto {
	case types.ProtocolDINIASCII:
		return []byte("\r\n")
	default: // RINCMD and CUSTOM both terminate responses on a bare newline
		return []byte("\n")
	}
}

// Frame appends the outgoing terminator for proto to cmd and returns the
// UTF-8 bytes to write to the connection.
//
//	RINCMD / DINI_ASCII  -> cmd + "\r\n"
//	CUSTOM               -> cmd unchanged; caller already embedded its own
//	                        terminator in the command string
func Frame(cmd string, proto types.Protocol) []byte {
	switch proto {
	case types.ProtocolRINCMD, types.ProtocolDINIASCII:
		return []byte(cmd + "\r\n")
	default:
		return []byte(cmd)
	}
}
