// Package verdict derives a claim's label from per-source stances.
package verdict

import (
	"math"
	"strings"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

const (
	factSupportRatio = 0.6
	hoaxOpposeRatio  = 0.5
)

// ReasoningUnassessed is the reasoning attached to synthesized stances.
const ReasoningUnassessed = "Sumber ini tidak dinilai oleh AI; dianggap netral."

// Aggregate tallies stances and labels the claim. The label depends only on
// the stance counts.
func Aggregate(stances []model.SourceStance) model.VerdictAggregate {
	var agg model.VerdictAggregate
	for _, s := range stances {
		switch s.Stance {
		case model.StanceSupport:
			agg.SupportingSources++
		case model.StanceOppose:
			agg.OpposingSources++
		default:
			agg.NeutralSources++
		}
	}
	agg.TotalSources = agg.SupportingSources + agg.OpposingSources + agg.NeutralSources
	agg.Label = Label(agg.SupportingSources, agg.OpposingSources, agg.NeutralSources)
	agg.Score = round2(ratio(agg.SupportingSources, agg.TotalSources) * 100)
	return agg
}

// Label applies the verdict rule to a stance tally. FAKTA is checked before HOAX.
func Label(support, oppose, neutral int) model.VerdictLabel {
	total := support + oppose + neutral
	supportRatio := ratio(support, total)
	opposeRatio := ratio(oppose, total)

	switch {
	case supportRatio >= factSupportRatio && support >= oppose+1:
		return model.LabelFact
	case opposeRatio >= hoaxOpposeRatio && oppose >= support+1:
		return model.LabelHoax
	default:
		return model.LabelUndetermined
	}
}

// Reconcile returns exactly one stance per source, in source order. Stances
// are matched by index first, then by URL, then by domain; the first match
// wins. Sources left without a stance get a synthesized NEUTRAL one, and
// stances that match no source are dropped.
func Reconcile(stances []model.SourceStance, sources []model.SourceResult) []model.SourceStance {
	out := make([]model.SourceStance, len(sources))
	assigned := make([]bool, len(sources))

	assign := func(i int, s model.SourceStance) {
		src := sources[i]
		s.SourceIndex = i + 1
		if s.URL == "" {
			s.URL = src.Link
		}
		if s.Domain == "" {
			s.Domain = src.DisplayLink
		}
		if !s.Stance.Valid() {
			s.Stance = model.StanceNeutral
		}
		out[i] = s
		assigned[i] = true
	}

	for _, s := range stances {
		i := match(s, sources, assigned)
		if i < 0 {
			continue
		}
		assign(i, s)
	}

	for i, src := range sources {
		if assigned[i] {
			continue
		}
		out[i] = model.SourceStance{
			SourceIndex: i + 1,
			Domain:      src.DisplayLink,
			URL:         src.Link,
			Stance:      model.StanceNeutral,
			Reasoning:   ReasoningUnassessed,
		}
	}
	return out
}

func match(s model.SourceStance, sources []model.SourceResult, assigned []bool) int {
	if s.SourceIndex >= 1 && s.SourceIndex <= len(sources) {
		if assigned[s.SourceIndex-1] {
			return -1
		}
		return s.SourceIndex - 1
	}
	if s.URL != "" {
		for i, src := range sources {
			if !assigned[i] && strings.EqualFold(strings.TrimRight(src.Link, "/"), strings.TrimRight(s.URL, "/")) {
				return i
			}
		}
	}
	if s.Domain != "" {
		want := normalizeDomain(s.Domain)
		for i, src := range sources {
			if !assigned[i] && normalizeDomain(src.DisplayLink) == want {
				return i
			}
		}
	}
	return -1
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimPrefix(d, "www.")
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
