// Package quality derives a confidence and spelling verdict from
// word-level recognizer tokens.
package quality

import (
	"math"

	"witaj.town/record"
)

const (
	// spellConfThreshold is the minimum average confidence for a
	// transcript to count as acceptably spelled at all.
	spellConfThreshold = 0.6
	confFallback       = 0
)

// Summary is the derived verdict for one entry's tokens.
type Summary struct {
	AvgConf float64 `json:"avgConf"`
	SpellOk bool    `json:"spellOk"`
}

// Summarize averages token confidences, clamped into [0,1], and decides
// whether spelling is acceptable. Tokens without a finite confidence do
// not contribute to the average; no usable confidence at all scores as
// zero, not as unknown. A single word flagged misspelled disqualifies
// the whole entry.
func Summarize(tokens []record.Token) Summary {
	var confSum float64
	var confCount int
	var spellCount, misspellCount int

	for _, tok := range tokens {
		if !math.IsNaN(tok.Conf) && !math.IsInf(tok.Conf, 0) {
			confSum += clamp01(tok.Conf)
			confCount++
		}
		if tok.Spell != nil {
			spellCount++
			if !*tok.Spell {
				misspellCount++
			}
		}
	}

	avgConf := float64(confFallback)
	if confCount > 0 {
		avgConf = confSum / float64(confCount)
	}

	misspellRatio := 0.0
	if spellCount > 0 {
		misspellRatio = float64(misspellCount) / float64(spellCount)
	}

	return Summary{
		AvgConf: avgConf,
		SpellOk: avgConf >= spellConfThreshold && misspellRatio == 0,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
