package score

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/bgricker/specdrive/internal/report"
)

const noReasoning = "No reasoning provided"

var scorePattern = regexp.MustCompile(`(?i)score["'\s]*[:=]\s*(\d+(?:\.\d+)?)`)

type scoreResponse struct {
	Score     json.RawMessage `json:"score"`
	Reasoning any             `json:"reasoning"`
}

// Parse extracts a score from a generative response. It tries strict JSON,
// then a repaired copy of the outermost object, then a "score: N" pattern in
// free text. The value is returned as found, without clamping.
func Parse(text string) (report.SatisfactionScore, bool) {
	trimmed := stripFences(strings.TrimSpace(text))

	if s, ok := parseJSON(trimmed); ok {
		return s, true
	}
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		if repaired, err := jsonrepair.JSONRepair(trimmed[start : end+1]); err == nil {
			if s, ok := parseJSON(repaired); ok {
				return s, true
			}
		}
	}
	if m := scorePattern.FindStringSubmatch(trimmed); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && finite(v) {
			return report.SatisfactionScore{
				Value:     v,
				Rationale: clip(trimmed, 200),
				Source:    report.SourceExtracted,
			}, true
		}
	}
	return report.SatisfactionScore{}, false
}

func parseJSON(text string) (report.SatisfactionScore, bool) {
	var resp scoreResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return report.SatisfactionScore{}, false
	}
	v, ok := numeric(resp.Score)
	if !ok {
		return report.SatisfactionScore{}, false
	}
	return report.SatisfactionScore{
		Value:     v,
		Rationale: reasoning(resp.Reasoning),
		Source:    report.SourceGenerative,
	}, true
}

// numeric accepts a finite JSON number or a string holding one.
func numeric(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func reasoning(v any) string {
	switch r := v.(type) {
	case nil:
		return noReasoning
	case string:
		if strings.TrimSpace(r) == "" {
			return noReasoning
		}
		return strings.TrimSpace(r)
	default:
		return fmt.Sprint(r)
	}
}

// stripFences removes a surrounding markdown code fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
