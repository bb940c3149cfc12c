package protocol

// Two checksum algorithms coexist on the wire and must not be unified: the
// radar frame path uses a byte-wise XOR over header+payload, while the
// photoelectric uplink subsystem uses an additive sum truncated to one byte.
// Each message family selects its variant explicitly.

// ChecksumXOR computes the XOR checksum used by the 0xFA55FA55 radar frames.
func ChecksumXOR(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// ChecksumAdd computes the additive checksum (sum & 0xFF) used by the
// photoelectric uplink frames.
func ChecksumAdd(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}
