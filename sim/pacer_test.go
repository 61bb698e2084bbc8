package sim

import (
	"errors"
	"testing"
)

func TestBuildSchedule_PartitionsPayloadExactly(t *testing.T) {
	// GIVEN a range of payload lengths and fragment sizes
	cases := []struct {
		payloadLen   int
		fragmentSize int
	}{
		{1, 1024},
		{1023, 1024},
		{1024, 1024},
		{1025, 1024},
		{50_000, 1024},
		{50_000, 512},
		{3, 1},
		{7_777, 100},
	}

	for _, tc := range cases {
		// WHEN a schedule is built
		frags, err := BuildSchedule(tc.payloadLen, tc.fragmentSize, 1_000_000, 0)
		if err != nil {
			t.Fatalf("BuildSchedule(%d, %d): unexpected error %v", tc.payloadLen, tc.fragmentSize, err)
		}

		// THEN the fragment count is ceil(L/S)
		wantCount := (tc.payloadLen + tc.fragmentSize - 1) / tc.fragmentSize
		if len(frags) != wantCount {
			t.Errorf("BuildSchedule(%d, %d): got %d fragments, want %d", tc.payloadLen, tc.fragmentSize, len(frags), wantCount)
		}

		// AND the fragments partition [0, L) exactly: no gaps, no
		// overlap, byte lengths summing to L, sequence numbers 0..n-1
		offset := 0
		total := 0
		for i, f := range frags {
			if f.Seq != i {
				t.Errorf("fragment %d: Seq = %d, want %d", i, f.Seq, i)
			}
			if f.Offset != offset {
				t.Errorf("fragment %d: Offset = %d, want %d", i, f.Offset, offset)
			}
			if f.Length <= 0 || f.Length > tc.fragmentSize {
				t.Errorf("fragment %d: Length = %d out of range (0, %d]", i, f.Length, tc.fragmentSize)
			}
			offset += f.Length
			total += f.Length
		}
		if total != tc.payloadLen {
			t.Errorf("BuildSchedule(%d, %d): fragment lengths sum to %d, want %d", tc.payloadLen, tc.fragmentSize, total, tc.payloadLen)
		}
	}
}

func TestBuildSchedule_SendTimesNonDecreasing(t *testing.T) {
	// GIVEN a schedule for a multi-fragment payload
	frags, err := BuildSchedule(50_000, 700, 2_500_000, 1_000)
	if err != nil {
		t.Fatalf("BuildSchedule: unexpected error %v", err)
	}

	// THEN scheduled send times start at the start tick and never
	// decrease with sequence number
	if frags[0].SendAt != 1_000 {
		t.Errorf("first fragment SendAt = %d, want 1000", frags[0].SendAt)
	}
	for i := 1; i < len(frags); i++ {
		if frags[i].SendAt < frags[i-1].SendAt {
			t.Errorf("SendAt decreased at seq %d: %d < %d", i, frags[i].SendAt, frags[i-1].SendAt)
		}
	}
}

func TestBuildSchedule_ReferencePacing(t *testing.T) {
	// GIVEN the reference parameters: 50000-byte payload, 1024-byte
	// fragments, 1 Mbps pacing
	frags, err := BuildSchedule(50_000, 1024, 1_000_000, 0)
	if err != nil {
		t.Fatalf("BuildSchedule: unexpected error %v", err)
	}

	// THEN 49 fragments are produced and the last one carries the
	// 848-byte remainder (50000 - 48*1024)
	if len(frags) != 49 {
		t.Fatalf("got %d fragments, want 49", len(frags))
	}
	last := frags[len(frags)-1]
	if last.Length != 848 {
		t.Errorf("last fragment length = %d, want 848", last.Length)
	}

	// AND full-size fragments are spaced 8192 us apart (1024*8 bits
	// at 1 Mbps = 8.192 ms)
	for i := 1; i < len(frags); i++ {
		gap := frags[i].SendAt - frags[i-1].SendAt
		if gap != 8192 {
			t.Errorf("gap before seq %d = %d ticks, want 8192", i, gap)
		}
	}
}

func TestBuildSchedule_EmptyPayload(t *testing.T) {
	// GIVEN a zero-length payload
	// WHEN a schedule is built
	frags, err := BuildSchedule(0, 1024, 1_000_000, 0)

	// THEN no fragments are produced and no error is reported
	if err != nil {
		t.Fatalf("BuildSchedule(0, ...): unexpected error %v", err)
	}
	if len(frags) != 0 {
		t.Errorf("BuildSchedule(0, ...): got %d fragments, want 0", len(frags))
	}
}

func TestBuildSchedule_ZeroFragmentSize(t *testing.T) {
	// GIVEN a fragment size of zero
	// WHEN a schedule is built
	_, err := BuildSchedule(50_000, 0, 1_000_000, 0)

	// THEN the call fails fast instead of producing infinite fragments
	if !errors.Is(err, ErrZeroFragmentSize) {
		t.Errorf("BuildSchedule(..., 0, ...): got err %v, want ErrZeroFragmentSize", err)
	}
}

func TestBuildSchedule_ZeroRate(t *testing.T) {
	// GIVEN a pacing rate of zero
	// WHEN a schedule is built
	_, err := BuildSchedule(50_000, 1024, 0, 0)

	// THEN the call fails fast
	if !errors.Is(err, ErrZeroRate) {
		t.Errorf("BuildSchedule(..., rate=0, ...): got err %v, want ErrZeroRate", err)
	}
}
