package scanner

import (
	"testing"

	"confidential-gateway/internal/types"
)

type fakeDetector struct {
	results []types.ScanResult
}

func (f fakeDetector) Detect(string, []types.ScanResult) []types.ScanResult { return f.results }

func TestNLPEngine_NilDetectorFindsNothing(t *testing.T) {
	e := NewNLPEngine(nil, 0.6, 0.15)
	if got := e.Scan("Jane Doe works at Acme Corp", nil); got != nil {
		t.Errorf("expected noop detector to find nothing, got %+v", got)
	}
}

func TestNLPEngine_FiltersByMinConfidence(t *testing.T) {
	det := fakeDetector{results: []types.ScanResult{
		{Value: "Jane Doe", Confidence: 0.5, Position: &types.Span{Start: 0, End: 8}},
		{Value: "Acme Corp", Confidence: 0.8, Position: &types.Span{Start: 20, End: 29}},
	}}
	e := NewNLPEngine(det, 0.6, 0.0)
	got := e.Scan("Jane Doe works at Acme Corp here", nil)
	if len(got) != 1 || got[0].Value != "Acme Corp" {
		t.Errorf("expected only the high-confidence result to survive, got %+v", got)
	}
}

func TestNLPEngine_StampsStrategy(t *testing.T) {
	det := fakeDetector{results: []types.ScanResult{
		{Value: "Jane Doe", Confidence: 0.9, Position: &types.Span{Start: 0, End: 8}},
	}}
	e := NewNLPEngine(det, 0.6, 0.0)
	got := e.Scan("Jane Doe", nil)
	if len(got) != 1 || got[0].Strategy != "NLP" {
		t.Errorf("expected result to be stamped with NLP strategy, got %+v", got)
	}
}
