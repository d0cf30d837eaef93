package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
)

const (
	insufficientMarker = "insufficient context"
	answerMarker       = "final answer:"
	defaultConfidence  = 0.5
)

var confidenceLine = regexp.MustCompile(`(?i)\s*confidence:\s*([0-9]*\.?[0-9]+)\s*$`)

// parseSufficiencyResponse classifies a model reply. A reply the model
// delivered but shaped unexpectedly is a not-relevant verdict, never an
// error; only the transport to the model can fail.
func parseSufficiencyResponse(response string) *domain.VerdictPayload {
	lower := strings.ToLower(strings.TrimSpace(response))

	if lower == insufficientMarker {
		return &domain.VerdictPayload{IsRelevant: false}
	}

	pos := strings.Index(lower, answerMarker)
	if pos < 0 {
		return &domain.VerdictPayload{IsRelevant: false}
	}

	answer := strings.TrimSpace(response[pos+len(answerMarker):])
	answer, confidence := splitConfidence(answer)
	if answer == "" {
		return &domain.VerdictPayload{IsRelevant: false}
	}

	return &domain.VerdictPayload{
		IsRelevant: true,
		AnswerText: answer,
		Confidence: confidence,
	}
}

// splitConfidence strips a trailing "Confidence: 0.x" line from the
// answer and returns its clamped value, or the default when absent or
// unparseable.
func splitConfidence(answer string) (string, float64) {
	m := confidenceLine.FindStringSubmatchIndex(answer)
	if m == nil {
		return answer, defaultConfidence
	}

	value, err := strconv.ParseFloat(answer[m[2]:m[3]], 64)
	stripped := strings.TrimSpace(answer[:m[0]])
	if err != nil {
		return stripped, defaultConfidence
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return stripped, value
}
