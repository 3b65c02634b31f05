package core

import "testing"

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Algorithm
		wantErr bool
	}{
		{"trending", "TRENDING", AlgorithmTrending, false},
		{"content", "CONTENT_BASED", AlgorithmContentBased, false},
		{"collaborative", "COLLABORATIVE", AlgorithmCollaborative, false},
		{"hybrid", "HYBRID", AlgorithmHybrid, false},
		{"empty defaults to hybrid", "", AlgorithmHybrid, false},
		{"unknown", "PAGERANK", "", true},
		{"lowercase rejected", "trending", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				if !IsInvalidAlgorithm(err) {
					t.Errorf("expected invalid algorithm error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAlgorithms(t *testing.T) {
	all := Algorithms()
	if len(all) != 4 {
		t.Fatalf("expected 4 algorithms, got %v", all)
	}
	for _, a := range all {
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if Algorithm("PAGERANK").Valid() {
		t.Errorf("unknown algorithm must be invalid")
	}
}
