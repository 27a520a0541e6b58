package proposal

import "testing"

func TestDissimilarityIdenticalIsZero(t *testing.T) {
	b := Body{Title: "Reduce latency", Action: "Scale up the cache tier"}
	if got := Dissimilarity(b, b); got != 0 {
		t.Fatalf("expected Δ=0 for identical bodies, got %f", got)
	}
}

func TestDissimilarityDisjointIsOne(t *testing.T) {
	a := Body{Title: "alpha beta gamma"}
	b := Body{Title: "delta epsilon zeta"}
	if got := Dissimilarity(a, b); got != 1 {
		t.Fatalf("expected Δ=1 for disjoint bodies, got %f", got)
	}
}

func TestDissimilarityIsSymmetric(t *testing.T) {
	a := Body{Title: "alpha beta", Action: "gamma"}
	b := Body{Title: "alpha delta", Action: "epsilon"}
	if Dissimilarity(a, b) != Dissimilarity(b, a) {
		t.Fatalf("expected Δ(a,b) == Δ(b,a)")
	}
}

func TestDissimilarityBounded(t *testing.T) {
	a := Body{Title: "alpha beta gamma delta"}
	b := Body{Title: "alpha beta"}
	got := Dissimilarity(a, b)
	if got < 0 || got > 1 {
		t.Fatalf("expected Δ in [0,1], got %f", got)
	}
}

func TestDissimilarityEmptyBodies(t *testing.T) {
	if got := Dissimilarity(Body{}, Body{}); got != 0 {
		t.Fatalf("expected Δ=0 for two empty bodies, got %f", got)
	}
}

func TestRevisionCostRounds(t *testing.T) {
	if got := RevisionCost(50, 1.0); got != 50 {
		t.Fatalf("expected cost=50 at Δ=1.0, got %d", got)
	}
	if got := RevisionCost(50, 0.0); got != 0 {
		t.Fatalf("expected cost=0 at Δ=0.0, got %d", got)
	}
	if got := RevisionCost(3, 0.5); got != 2 {
		t.Fatalf("expected round(1.5)=2, got %d", got)
	}
}
