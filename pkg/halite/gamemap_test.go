package halite

import "testing"

func TestNormalizeWraps(t *testing.T) {
	m := NewGameMap(8, 6)
	tests := []struct {
		in, want Position
	}{
		{Position{0, 0}, Position{0, 0}},
		{Position{8, 6}, Position{0, 0}},
		{Position{-1, -1}, Position{7, 5}},
		{Position{17, -7}, Position{1, 5}},
	}
	for _, tt := range tests {
		if got := m.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDistanceIsToroidal(t *testing.T) {
	m := NewGameMap(8, 8)
	if d := m.Distance(Position{0, 0}, Position{7, 7}); d != 2 {
		t.Errorf("expected wrapped distance 2, got %d", d)
	}
	if d := m.Distance(Position{2, 2}, Position{5, 3}); d != 4 {
		t.Errorf("expected distance 4, got %d", d)
	}
	if d := m.Distance(Position{3, 3}, Position{3, 3}); d != 0 {
		t.Errorf("expected 0, got %d", d)
	}
}

func TestGetUnsafeMoves(t *testing.T) {
	m := NewGameMap(8, 8)
	tests := []struct {
		name     string
		src, dst Position
		want     []Direction
	}{
		{"same cell", Position{1, 1}, Position{1, 1}, nil},
		{"east", Position{1, 1}, Position{3, 1}, []Direction{East}},
		{"wrap west", Position{1, 1}, Position{6, 1}, []Direction{West}},
		{"north", Position{1, 3}, Position{1, 1}, []Direction{North}},
		{"wrap south", Position{1, 7}, Position{1, 1}, []Direction{South}},
		{"diagonal", Position{2, 2}, Position{3, 4}, []Direction{East, South}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.GetUnsafeMoves(tt.src, tt.dst)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("move %d: got %c, want %c", i, got[i], tt.want[i])
				}
			}
			for _, d := range got {
				next := m.Offset(tt.src, d)
				if m.Distance(next, tt.dst) >= m.Distance(tt.src, tt.dst) {
					t.Errorf("direction %c does not reduce distance", d)
				}
			}
		})
	}
}

func TestDirectionInvertAndParse(t *testing.T) {
	for _, d := range Cardinals {
		if d.Invert().Invert() != d {
			t.Errorf("double invert of %c changed it", d)
		}
		if d.Offset().Add(d.Invert().Offset()) != (Position{}) {
			t.Errorf("offset of %c and its inverse do not cancel", d)
		}
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Errorf("ParseDirection(%q) = %c, %v", d.String(), parsed, err)
		}
	}
	if _, err := ParseDirection("x"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestGenerateMapIsMirrored(t *testing.T) {
	m, yards, err := GenerateMap(MapConfig{Width: 16, Height: 16, NumPlayers: 2, Seed: 42})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(yards) != 2 {
		t.Fatalf("expected 2 shipyards, got %d", len(yards))
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			a := m.At(Position{x, y}).Halite
			b := m.At(Position{15 - x, y}).Halite
			if a != b {
				t.Fatalf("cell (%d,%d)=%d differs from mirror %d", x, y, a, b)
			}
		}
	}

	again, _, _ := GenerateMap(MapConfig{Width: 16, Height: 16, NumPlayers: 2, Seed: 42})
	if again.TotalHalite() != m.TotalHalite() {
		t.Error("same seed produced a different map")
	}
}

func TestGenerateMapRejectsBadConfig(t *testing.T) {
	if _, _, err := GenerateMap(MapConfig{Width: 4, Height: 4, NumPlayers: 2}); err == nil {
		t.Error("expected error for tiny map")
	}
	if _, _, err := GenerateMap(MapConfig{Width: 16, Height: 16, NumPlayers: 3}); err == nil {
		t.Error("expected error for 3 players")
	}
}
