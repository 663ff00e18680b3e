package quality

import (
	"math"
	"testing"

	"witaj.town/record"
)

func boolPtr(v bool) *bool { return &v }

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.AvgConf != 0 {
		t.Errorf("AvgConf = %v, want 0", sum.AvgConf)
	}
	if sum.SpellOk {
		t.Error("SpellOk = true, want false for empty input")
	}
}

func TestSummarizeClampsConfidence(t *testing.T) {
	sum := Summarize([]record.Token{
		{Word: "a", Conf: 1.8},
		{Word: "b", Conf: -0.4},
	})
	if sum.AvgConf != 0.5 {
		t.Errorf("AvgConf = %v, want 0.5", sum.AvgConf)
	}
}

func TestSummarizeIgnoresNonFiniteConfidence(t *testing.T) {
	sum := Summarize([]record.Token{
		{Word: "a", Conf: math.NaN()},
		{Word: "b", Conf: math.Inf(1)},
		{Word: "c", Conf: 0.8},
	})
	if sum.AvgConf != 0.8 {
		t.Errorf("AvgConf = %v, want 0.8", sum.AvgConf)
	}
}

func TestSummarizeAllNonFiniteScoresZero(t *testing.T) {
	sum := Summarize([]record.Token{
		{Word: "a", Conf: math.NaN()},
	})
	if sum.AvgConf != 0 {
		t.Errorf("AvgConf = %v, want 0 fallback", sum.AvgConf)
	}
	if sum.SpellOk {
		t.Error("SpellOk = true, want false below threshold")
	}
}

func TestSummarizeSpellVerdict(t *testing.T) {
	t.Run("no spell data passes on confidence alone", func(t *testing.T) {
		sum := Summarize([]record.Token{
			{Word: "a", Conf: 0.9},
			{Word: "b", Conf: 0.7},
		})
		if !sum.SpellOk {
			t.Error("SpellOk = false, want true when no token carries a spell flag")
		}
	})

	t.Run("one misspelling disqualifies", func(t *testing.T) {
		sum := Summarize([]record.Token{
			{Word: "a", Conf: 0.9, Spell: boolPtr(true)},
			{Word: "b", Conf: 0.9, Spell: boolPtr(true)},
			{Word: "c", Conf: 0.9, Spell: boolPtr(false)},
		})
		if sum.SpellOk {
			t.Error("SpellOk = true, want false with a flagged misspelling")
		}
	})

	t.Run("low confidence disqualifies despite clean spelling", func(t *testing.T) {
		sum := Summarize([]record.Token{
			{Word: "a", Conf: 0.5, Spell: boolPtr(true)},
		})
		if sum.SpellOk {
			t.Error("SpellOk = true, want false below confidence threshold")
		}
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		sum := Summarize([]record.Token{
			{Word: "a", Conf: 0.6, Spell: boolPtr(true)},
		})
		if !sum.SpellOk {
			t.Error("SpellOk = false, want true at exactly the threshold")
		}
	})
}

func TestSummarizeRangeInvariant(t *testing.T) {
	cases := [][]record.Token{
		{{Conf: 5}, {Conf: 12}},
		{{Conf: -3}},
		{{Conf: 0.2}, {Conf: 0.9}, {Conf: math.Inf(-1)}},
	}
	for _, tokens := range cases {
		sum := Summarize(tokens)
		if sum.AvgConf < 0 || sum.AvgConf > 1 {
			t.Errorf("AvgConf = %v out of [0,1] for %v", sum.AvgConf, tokens)
		}
	}
}
