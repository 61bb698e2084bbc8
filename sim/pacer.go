// Fragmenter/Pacer: turns a variable-size payload into a timed sequence
// of fixed-size fragments respecting a target send rate.
//
// Pacing is open-loop. The schedule is computed once, up front, from
// the payload length and the rate; it never reacts to what the
// transport does. If the transport pushes back at send time, the
// orchestrator retries the same fragment later without the pacer
// recomputing anything.

package sim

import "fmt"

// Fragment describes one byte range of a payload and the virtual time
// at which it should be handed to the transport. Sequence numbers are
// unique within the payload, strictly increasing from 0.
type Fragment struct {
	Seq    int
	Offset int
	Length int
	SendAt int64 // ticks
}

// transmitTicks returns the serialization time of size bytes at
// rateBps, in ticks. Exact for the usual power-of-two fragment sizes
// against round rates; truncation error elsewhere is below one tick.
func transmitTicks(size int, rateBps int64) int64 {
	return int64(size) * 8 * TicksPerSecond / rateBps
}

// BuildSchedule fragments a payload of payloadLen bytes into
// ceil(payloadLen/fragmentSize) fragments and assigns each its send
// time: fragment 0 goes at start, and each subsequent fragment is
// spaced by the serialization time of its predecessor at rateBps. The
// final fragment may be short; its own (smaller) serialization time
// would only shrink the gap to a fragment that never follows.
//
// payloadLen of 0 yields an empty schedule and no error: the payload
// is trivially delivered.
func BuildSchedule(payloadLen, fragmentSize int, rateBps int64, start int64) ([]Fragment, error) {
	if fragmentSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrZeroFragmentSize, fragmentSize)
	}
	if rateBps <= 0 {
		return nil, fmt.Errorf("pacing %w: got %d", ErrZeroRate, rateBps)
	}
	if payloadLen == 0 {
		return nil, nil
	}

	count := (payloadLen + fragmentSize - 1) / fragmentSize
	frags := make([]Fragment, 0, count)
	sendAt := start
	for seq, offset := 0, 0; offset < payloadLen; seq, offset = seq+1, offset+fragmentSize {
		length := fragmentSize
		if offset+length > payloadLen {
			length = payloadLen - offset
		}
		frags = append(frags, Fragment{
			Seq:    seq,
			Offset: offset,
			Length: length,
			SendAt: sendAt,
		})
		sendAt += transmitTicks(length, rateBps)
	}
	return frags, nil
}
