package extract

import (
	"testing"
)

func TestParseInsufficientContext(t *testing.T) {
	for _, resp := range []string{
		"Insufficient context",
		"insufficient context",
		"  Insufficient context  ",
		"INSUFFICIENT CONTEXT",
	} {
		p := parseSufficiencyResponse(resp)
		if p.IsRelevant {
			t.Errorf("parse(%q).IsRelevant = true, want false", resp)
		}
		if p.AnswerText != "" {
			t.Errorf("parse(%q).AnswerText = %q, want empty", resp, p.AnswerText)
		}
	}
}

func TestParseFinalAnswer(t *testing.T) {
	p := parseSufficiencyResponse("Final Answer: Paris is the capital of France.")
	if !p.IsRelevant {
		t.Fatal("expected relevant verdict")
	}
	if p.AnswerText != "Paris is the capital of France." {
		t.Errorf("AnswerText = %q", p.AnswerText)
	}
	if p.Confidence != defaultConfidence {
		t.Errorf("Confidence = %v, want default %v", p.Confidence, defaultConfidence)
	}
}

func TestParseFinalAnswerCaseInsensitive(t *testing.T) {
	p := parseSufficiencyResponse("final answer: 42")
	if !p.IsRelevant || p.AnswerText != "42" {
		t.Errorf("parse = %+v", p)
	}
}

func TestParseFinalAnswerWithPreamble(t *testing.T) {
	p := parseSufficiencyResponse("Based on the text, here is my response.\nFinal Answer: The iPhone 15 launched in September 2023.")
	if !p.IsRelevant {
		t.Fatal("expected relevant verdict")
	}
	if p.AnswerText != "The iPhone 15 launched in September 2023." {
		t.Errorf("AnswerText = %q", p.AnswerText)
	}
}

func TestParseEmptyAfterMarker(t *testing.T) {
	for _, resp := range []string{"Final Answer:", "Final Answer:   \n  "} {
		p := parseSufficiencyResponse(resp)
		if p.IsRelevant {
			t.Errorf("parse(%q).IsRelevant = true, want false (empty answer)", resp)
		}
	}
}

func TestParseUnknownShape(t *testing.T) {
	for _, resp := range []string{
		"",
		"I am not sure what you mean.",
		"The text talks about France but not its capital.",
	} {
		p := parseSufficiencyResponse(resp)
		if p.IsRelevant {
			t.Errorf("parse(%q).IsRelevant = true, want false", resp)
		}
	}
}

func TestParseConfidenceLine(t *testing.T) {
	p := parseSufficiencyResponse("Final Answer: Paris.\nConfidence: 0.9")
	if !p.IsRelevant {
		t.Fatal("expected relevant verdict")
	}
	if p.AnswerText != "Paris." {
		t.Errorf("AnswerText = %q, want confidence line stripped", p.AnswerText)
	}
	if p.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", p.Confidence)
	}
}

func TestParseConfidenceClamped(t *testing.T) {
	p := parseSufficiencyResponse("Final Answer: Paris.\nConfidence: 7")
	if p.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", p.Confidence)
	}
}

func TestParseConfidenceOnlyAnswerIsEmpty(t *testing.T) {
	p := parseSufficiencyResponse("Final Answer:\nConfidence: 0.8")
	if p.IsRelevant {
		t.Error("confidence line alone is not an answer")
	}
}

func TestSplitConfidenceAbsent(t *testing.T) {
	answer, conf := splitConfidence("plain answer text")
	if answer != "plain answer text" || conf != defaultConfidence {
		t.Errorf("splitConfidence = %q, %v", answer, conf)
	}
}
