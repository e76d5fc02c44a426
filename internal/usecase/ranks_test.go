package usecase

import (
	"testing"
)

func TestDefenseAccumulatorRanksByPointsAllowed(t *testing.T) {
	acc := newDefenseAccumulator()
	acc.add("QB", "KC", 30)
	acc.add("QB", "KC", 10)
	acc.add("QB", "BUF", 25)
	acc.add("QB", "NE", 12)

	table := acc.table()
	entries := table["QB"]

	if entries["KC"].Rank != 1 || entries["KC"].Total != 40 {
		t.Fatalf("expected KC rank 1 total 40, got %+v", entries["KC"])
	}
	if entries["BUF"].Rank != 2 {
		t.Fatalf("expected BUF rank 2, got %+v", entries["BUF"])
	}
	if entries["NE"].Rank != 3 {
		t.Fatalf("expected NE rank 3, got %+v", entries["NE"])
	}
	if entries["KC"].Count != 2 || entries["KC"].Scale != 3 {
		t.Fatalf("unexpected sample bookkeeping %+v", entries["KC"])
	}
}

func TestDefenseAccumulatorTieBreaksByTeamCode(t *testing.T) {
	acc := newDefenseAccumulator()
	acc.add("RB", "DAL", 20)
	acc.add("RB", "CHI", 20)

	table := acc.table()
	if table["RB"]["CHI"].Rank != 1 {
		t.Fatalf("expected CHI to win the tie lexicographically, got %+v", table["RB"])
	}
	if table["RB"]["DAL"].Rank != 2 {
		t.Fatalf("expected DAL rank 2, got %+v", table["RB"])
	}
}

func TestDefenseAccumulatorIgnoresEmptyKeys(t *testing.T) {
	acc := newDefenseAccumulator()
	acc.add("", "KC", 10)
	acc.add("QB", "", 10)

	if acc.hasSamples() {
		t.Fatal("expected no samples from empty position or opponent")
	}
}

func TestRankPlayersByPositionTieBreaksByID(t *testing.T) {
	totals := map[string]float64{
		"b": 50,
		"a": 50,
		"c": 10,
	}
	positions := map[string]string{"a": "WR", "b": "WR", "c": "WR"}

	ranks := rankPlayersByPosition(totals, positions)

	if ranks["a"].Rank != 1 {
		t.Fatalf("expected player a to win the tie, got %+v", ranks["a"])
	}
	if ranks["b"].Rank != 2 {
		t.Fatalf("expected player b rank 2, got %+v", ranks["b"])
	}
	if ranks["c"].Rank != 3 {
		t.Fatalf("expected player c rank 3, got %+v", ranks["c"])
	}
}

func TestRankPlayersSeparatePositionGroups(t *testing.T) {
	totals := map[string]float64{"qb1": 100, "rb1": 90}
	positions := map[string]string{"qb1": "QB", "rb1": "RB"}

	ranks := rankPlayersByPosition(totals, positions)

	if ranks["qb1"].Rank != 1 || ranks["rb1"].Rank != 1 {
		t.Fatalf("expected independent rank 1 per position, got %+v", ranks)
	}
}
