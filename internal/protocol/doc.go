// Package protocol owns the link contract between payload bits and channel symbols.
//
// Ownership boundary:
// - error taxonomy shared by every pipeline stage
// - packet split/join primitives
// - 2-bit group <-> symbol mapping
//
// Sub-packages carry the error-correcting codes (ecc), the channel wire
// format (frame, tlv) and remote channel retry policy (session).
package protocol
