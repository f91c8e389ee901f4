package parlay

import (
	"testing"

	"prop-parlay-engine/internal/mathutil"
)

func TestCombinationsCount(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name  string
		size  int
		limit int
		want  int
	}{
		{"Pairs uncapped", 2, DefaultComboCap, mathutil.Binomial(8, 2)},
		{"Triples uncapped", 3, 0, mathutil.Binomial(8, 3)},
		{"Capped", 4, 10, 10},
		{"Cap above total", 4, 1000, mathutil.Binomial(8, 4)},
		{"Full set", 8, DefaultComboCap, 1},
		{"Size above length", 9, DefaultComboCap, 0},
		{"Zero size", 0, DefaultComboCap, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combinations(items, tt.size, tt.limit)
			if len(got) != tt.want {
				t.Errorf("got %d combinations, want %d", len(got), tt.want)
			}
			for _, combo := range got {
				if len(combo) != tt.size {
					t.Fatalf("combination %v has size %d, want %d", combo, len(combo), tt.size)
				}
			}
		})
	}
}

func TestCombinationsOrderAndUniqueness(t *testing.T) {
	got := Combinations([]string{"a", "b", "c", "d"}, 2, 0)
	want := [][]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}, {"c", "d"}}

	if len(got) != len(want) {
		t.Fatalf("got %d combinations, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Errorf("combination %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCombinationsCappedPrefix(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	full := Combinations(items, 3, 0)
	capped := Combinations(items, 3, 7)

	if len(capped) != 7 {
		t.Fatalf("capped length %d, want 7", len(capped))
	}
	for i := range capped {
		for j := range capped[i] {
			if capped[i][j] != full[i][j] {
				t.Fatalf("capped[%d] = %v, want prefix entry %v", i, capped[i], full[i])
			}
		}
	}
}

func TestCombinationsDoNotAlias(t *testing.T) {
	got := Combinations([]int{1, 2, 3}, 2, 0)
	got[0][0] = 99
	if got[1][0] == 99 {
		t.Error("combinations share backing storage")
	}
}

func TestEachCombinationStops(t *testing.T) {
	visited := 0
	EachCombination([]int{1, 2, 3, 4, 5}, 2, func([]int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("visited %d combinations after stop, want 3", visited)
	}
}
