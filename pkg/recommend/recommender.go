package recommend

import (
	"errors"
	"log/slog"
	"sort"

	"fabrica-hq/vulcan/pkg/bundle"
	"fabrica-hq/vulcan/pkg/facts"
)

// Baseline score every process family starts at before heuristics apply.
const BaselineScore = 0.5

// Default confidence banding thresholds, used when the bundle manifest
// leaves the recommendation policy unset.
const (
	DefaultHighThreshold   = 0.8
	DefaultMediumThreshold = 0.65
)

// Confidence levels shared with the cost model.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// defaultReason explains a recommendation no heuristic contributed to.
const defaultReason = "no process heuristics matched the part facts; baseline ranking applied"

// ErrNoProcessFamilies indicates the bundle defines no process families to
// rank.
var ErrNoProcessFamilies = errors.New("bundle defines no process families")

// ProcessScore is one entry in the deterministic ranking.
type ProcessScore struct {
	ProcessID string  `json:"process_id"`
	Score     float64 `json:"score"`
}

// Recommendation is the recommender output for one part.
type Recommendation struct {
	ProcessID string         `json:"process_id"`
	Score     float64        `json:"score"`
	Level     string         `json:"level"`
	Reasons   []string       `json:"reasons"`
	Ranking   []ProcessScore `json:"ranking"`
}

// Recommender scores process families against part facts using the
// bundle's heuristics. It is stateless beyond the immutable bundle and safe
// for concurrent use.
type Recommender struct {
	bundle *bundle.Bundle
	logger *slog.Logger
}

// New creates a recommender over a validated bundle.
func New(b *bundle.Bundle, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		bundle: b,
		logger: logger.With("component", "recommend"),
	}
}

// Recommend ranks all process families for the given part facts.
func (r *Recommender) Recommend(snapshot *facts.Snapshot) (*Recommendation, error) {
	if len(r.bundle.Processes) == 0 {
		return nil, ErrNoProcessFamilies
	}

	scores := make(map[string]float64, len(r.bundle.Processes))
	for _, p := range r.bundle.Processes {
		scores[p.ProcessID] = BaselineScore
	}

	var reasons []string
	seenReasons := make(map[string]struct{})
	fired := 0

	for _, h := range r.bundle.Heuristics {
		if !r.matches(h, snapshot.Facts) {
			continue
		}
		fired++

		score := scores[h.ProcessID] + h.ConfidenceBoost
		if score > 1.0 {
			score = 1.0
		}
		scores[h.ProcessID] = score

		for _, reason := range h.Reasons {
			if _, dup := seenReasons[reason]; dup {
				continue
			}
			seenReasons[reason] = struct{}{}
			reasons = append(reasons, reason)
		}
	}

	ranking := make([]ProcessScore, 0, len(scores))
	for processID, score := range scores {
		ranking = append(ranking, ProcessScore{ProcessID: processID, Score: score})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].ProcessID < ranking[j].ProcessID
	})

	winner := ranking[0]
	if fired == 0 {
		reasons = []string{defaultReason}
	}

	rec := &Recommendation{
		ProcessID: winner.ProcessID,
		Score:     winner.Score,
		Level:     r.level(winner.Score),
		Reasons:   reasons,
		Ranking:   ranking,
	}

	r.logger.Debug("process recommendation computed",
		"process_id", rec.ProcessID,
		"score", rec.Score,
		"level", rec.Level,
		"heuristics_fired", fired,
	)

	return rec, nil
}

// matches evaluates one heuristic's combined condition sets.
func (r *Recommender) matches(h bundle.Heuristic, m facts.Map) bool {
	return matchAll(h.ConditionsAll, m) &&
		matchAny(h.ConditionsAny, m) &&
		matchNone(h.ConditionsNot, m)
}

// level maps a winning score to the bundle-configured confidence band.
func (r *Recommender) level(score float64) string {
	high := r.bundle.Manifest.Recommendation.HighThreshold
	medium := r.bundle.Manifest.Recommendation.MediumThreshold
	if high == 0 {
		high = DefaultHighThreshold
	}
	if medium == 0 {
		medium = DefaultMediumThreshold
	}

	switch {
	case score >= high:
		return LevelHigh
	case score >= medium:
		return LevelMedium
	default:
		return LevelLow
	}
}
