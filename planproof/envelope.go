package planproof

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelope is an optional CBOR-encoded wrapper around a plan's binary
// stream, carrying a plan format version alongside the raw bytes. A
// producer may choose to wrap the plan this way when shipping it alongside
// other CBOR-encoded metadata.
type Envelope struct {
	Version uint32 `cbor:"version"`
	Plan    []byte `cbor:"plan"`
}

// ErrUnsupportedEnvelopeVersion is returned when an envelope declares a
// plan format version this decoder does not understand.
var ErrUnsupportedEnvelopeVersion = fmt.Errorf("planproof: unsupported envelope version")

// CurrentEnvelopeVersion is the only plan format version this decoder
// understands.
const CurrentEnvelopeVersion uint32 = 1

// EncodeEnvelope wraps plan bytes in a versioned CBOR envelope.
func EncodeEnvelope(plan []byte) ([]byte, error) {
	buf, err := cbor.Marshal(Envelope{Version: CurrentEnvelopeVersion, Plan: plan})
	if err != nil {
		return nil, fmt.Errorf("planproof: encode envelope: %w", err)
	}
	return buf, nil
}

// DecodeEnvelope unwraps a CBOR-encoded Envelope and returns its plan
// bytes, validating the declared version.
func DecodeEnvelope(buf []byte) ([]byte, error) {
	var env Envelope
	if err := cbor.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("planproof: decode envelope: %w", err)
	}
	if env.Version != CurrentEnvelopeVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEnvelopeVersion, env.Version)
	}
	return env.Plan, nil
}
