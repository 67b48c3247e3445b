package pools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

// vocabEntry is one known entity value from the store, with where it
// came from and how confidently it was extracted.
type vocabEntry struct {
	Value      string
	Pool       string // empty for basic entity types
	EntityType string
	ItemID     string
	Confidence float64
}

// AnalyzeText scans free text against the known entity vocabulary.
// Modes: extract lists matches, classify adds per-pool tallies, link
// attaches item IDs for matches at or above linkThreshold.
func (s *Service) AnalyzeText(ctx context.Context, text, mode string, linkThreshold float64) (*AnalysisResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &AnalysisResult{OK: false, Mode: mode, Matches: []Match{}, PoolCounts: map[string]int{}, Ambiguous: []string{}, Error: "empty text"}, nil
	}
	switch mode {
	case ModeExtract, ModeClassify, ModeLink:
	default:
		return &AnalysisResult{OK: false, Mode: mode, Matches: []Match{}, PoolCounts: map[string]int{}, Ambiguous: []string{}, Error: fmt.Sprintf("unknown mode: %q", mode)}, nil
	}
	if linkThreshold <= 0 || linkThreshold > 1 {
		linkThreshold = 0.6
	}

	vocab, err := s.loadVocabulary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entity vocabulary: %w", err)
	}

	lowerText := strings.ToLower(text)
	matches := []Match{}
	poolCounts := map[string]int{}
	poolsByValue := map[string]map[string]bool{}

	for _, entry := range vocab {
		value := strings.ToLower(entry.Value)
		if len(value) < 3 {
			continue
		}
		pos := strings.Index(lowerText, value)
		if pos < 0 {
			continue
		}
		match := Match{
			Span:       entry.Value,
			Position:   pos,
			Pool:       entry.Pool,
			EntityType: entry.EntityType,
			Confidence: round3(entry.Confidence),
		}
		if mode == ModeLink && entry.Confidence >= linkThreshold {
			match.LinkedID = entry.ItemID
		}
		matches = append(matches, match)
		if entry.Pool != "" {
			poolCounts[entry.Pool]++
			if poolsByValue[value] == nil {
				poolsByValue[value] = map[string]bool{}
			}
			poolsByValue[value][entry.Pool] = true
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Position != matches[j].Position {
			return matches[i].Position < matches[j].Position
		}
		return matches[i].Span < matches[j].Span
	})

	ambiguous := []string{}
	bridgeEntities := 0
	for value, pools := range poolsByValue {
		if len(pools) > 1 {
			ambiguous = append(ambiguous, value)
			bridgeEntities++
		}
	}
	sort.Strings(ambiguous)

	result := &AnalysisResult{
		OK:             true,
		Mode:           mode,
		Matches:        matches,
		PoolCounts:     poolCounts,
		Ambiguous:      ambiguous,
		BridgeEntities: bridgeEntities,
		Scores:         scoreAnalysis(text, matches, poolCounts, bridgeEntities),
	}
	return result, nil
}

// loadVocabulary pulls the distinct values of every pool and basic
// entity type. Per-type limits keep the scan bounded.
func (s *Service) loadVocabulary(ctx context.Context) ([]vocabEntry, error) {
	vocab := []vocabEntry{}
	appendRows := func(rows []repos.EntityValueRow, pool, entityType string) {
		for _, row := range rows {
			vocab = append(vocab, vocabEntry{
				Value:      row.EntityValue,
				Pool:       pool,
				EntityType: entityType,
				ItemID:     row.ItemID,
				Confidence: row.Confidence,
			})
		}
	}
	for _, pool := range types.PoolNames {
		entityType := types.PoolEntityType(pool)
		rows, err := s.entities.DistinctValuesByType(ctx, s.db, entityType, 1000)
		if err != nil {
			return nil, err
		}
		appendRows(rows, pool, entityType)
	}
	for _, entityType := range types.BasicEntityTypes {
		rows, err := s.entities.DistinctValuesByType(ctx, s.db, entityType, 500)
		if err != nil {
			return nil, err
		}
		appendRows(rows, "", entityType)
	}
	return vocab, nil
}

// scoreAnalysis composes the 0-100 report card. Richness rewards match
// density, semantic understanding rewards pool spread, connection
// strength rewards bridge entities.
func scoreAnalysis(text string, matches []Match, poolCounts map[string]int, bridgeEntities int) AnalysisScores {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}

	density := float64(len(matches)) / float64(words) * 10.0
	richness := math.Min(100, density*100)

	poolSpread := float64(len(poolCounts)) / float64(len(types.PoolNames))
	semantic := math.Min(100, poolSpread*100)

	connection := math.Min(100, float64(bridgeEntities)*25.0)

	overall := 0.4*richness + 0.35*semantic + 0.25*connection
	return AnalysisScores{
		Richness:              round2(richness),
		SemanticUnderstanding: round2(semantic),
		ConnectionStrength:    round2(connection),
		Overall:               round2(overall),
		Grade:                 letterGrade(overall),
	}
}

func letterGrade(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "A-"
	case score >= 80:
		return "B+"
	case score >= 75:
		return "B"
	case score >= 70:
		return "B-"
	case score >= 65:
		return "C+"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
