package volume

import "testing"

func TestChunkKeyRoundTrip(t *testing.T) {
	cases := [][3]int{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -2, -3},
		{32767, -32768, 12345},
		{-20, 19, -1},
	}
	for _, c := range cases {
		key := makeChunkKey(c[0], c[1], c[2])
		cx, cy, cz := key.coords()
		if cx != c[0] || cy != c[1] || cz != c[2] {
			t.Fatalf("key %v unpacked to %d|%d|%d, want %d|%d|%d", key, cx, cy, cz, c[0], c[1], c[2])
		}
	}
}

func TestChunkKeyUnique(t *testing.T) {
	seen := make(map[ChunkKey][3]int)
	for x := -4; x <= 4; x++ {
		for y := -4; y <= 4; y++ {
			for z := -4; z <= 4; z++ {
				key := makeChunkKey(x, y, z)
				if prev, ok := seen[key]; ok {
					t.Fatalf("key collision: %v and %d|%d|%d", prev, x, y, z)
				}
				seen[key] = [3]int{x, y, z}
			}
		}
	}
}

func TestChunkKeyFileName(t *testing.T) {
	key := makeChunkKey(-1, 2, -3)
	if got := key.fileName(); got != "-1_2_-3" {
		t.Fatalf("fileName = %q, want %q", got, "-1_2_-3")
	}
}
