package usecase

import (
	"sort"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
)

// SelectAnswer picks the best verdict deterministically: relevant
// verdicts with answer text, ordered by confidence descending, then
// search rank ascending, then URL. Returns nil when nothing survives,
// which is a legitimate "no answer found" outcome.
func SelectAnswer(verdicts []domain.Verdict) *domain.Answer {
	survivors := make([]domain.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.IsRelevant && v.AnswerText != "" {
			survivors = append(survivors, v)
		}
	}
	if len(survivors) == 0 {
		return nil
	}

	sort.Slice(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.URL < b.URL
	})

	best := survivors[0]
	return &domain.Answer{Text: best.AnswerText, SourceURL: best.URL}
}
