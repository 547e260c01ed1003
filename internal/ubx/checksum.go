package ubx

// Checksum computes the two-byte UBX checksum over data. The range covered
// is class, id, the two length bytes, and the payload; sync bytes and the
// trailing checksum are excluded. Eight-bit wraparound is intentional.
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// frameChecksum computes the checksum for a frame given its envelope fields
// and payload, without materializing the full byte sequence.
func frameChecksum(class, id byte, payload []byte) (ckA, ckB byte) {
	length := uint16(len(payload))
	hdr := [4]byte{class, id, byte(length), byte(length >> 8)}
	ckA, ckB = Checksum(hdr[:])
	for _, b := range payload {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Valid reports whether the frame's trailing checksum bytes match a
// recomputation over its class, id, length, and payload.
func (f *Frame) Valid() bool {
	ckA, ckB := frameChecksum(f.Class, f.ID, f.Payload)
	return ckA == f.CkA && ckB == f.CkB
}
