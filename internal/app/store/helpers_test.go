package store

import "testing"

func TestSortPair(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		lo, hi int64
	}{
		{"already ordered", 1, 2, 1, 2},
		{"reversed", 9, 3, 3, 9},
		{"equal", 4, 4, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := SortPair(tt.a, tt.b)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("SortPair(%d, %d) = (%d, %d), want (%d, %d)", tt.a, tt.b, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestDMRoomName_OrderIndependent(t *testing.T) {
	if DMRoomName(7, 3) != DMRoomName(3, 7) {
		t.Errorf("DMRoomName(7,3) = %q, DMRoomName(3,7) = %q, want equal", DMRoomName(7, 3), DMRoomName(3, 7))
	}

	if got, want := DMRoomName(3, 7), "dm_3_7"; got != want {
		t.Errorf("DMRoomName(3, 7) = %q, want %q", got, want)
	}
}
