package partition

// phaseBit is the high bit of a 32-bit partition id field on the wire. A
// set bit means the message is destined for the next phase's message store
// under a multi-phase asynchronous discipline; a clear bit means the
// current phase. Valid partition ids therefore occupy 31 bits.
const phaseBit = int32(-2147483648)

// EncodeWithPhase packs a partition id and a next-phase flag into the
// wire representation PartitionExecutor and RequestProcessor exchange.
func EncodeWithPhase(id int32, forNextPhase bool) int32 {
	if forNextPhase {
		return id | phaseBit
	}

	return id &^ phaseBit
}

// DecodeWithPhase unpacks a wire partition id into its id and next-phase
// flag.
func DecodeWithPhase(encoded int32) (id int32, forNextPhase bool) {
	return encoded &^ phaseBit, encoded&phaseBit != 0
}
