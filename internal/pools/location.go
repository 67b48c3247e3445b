package pools

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/playalore/playalore/internal/types"
)

// placement is a parsed city address: a clock-face time plus a ring
// street, or a named landmark.
type placement struct {
	Minutes  int // minutes past 12:00 on the clock face
	Street   int // 0 = Esplanade, 1 = A, ... 12 = L
	Landmark string
	Raw      string
}

var (
	addressPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*&\s*([A-La-l]|Esplanade)\s*$`)
	plazaPattern   = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(?:x|@)?\s*(.*\bplaza)\s*$`)
)

// knownLandmarks are placements without a clock address.
var knownLandmarks = map[string]bool{
	"center camp": true,
	"the man":     true,
	"temple":      true,
	"airport":     true,
	"deep playa":  true,
}

// parsePlacement understands "H:MM & Street", "H:MM X Plaza" and bare
// landmark names. Anything else fails to parse and the item is skipped.
func parsePlacement(raw string) (placement, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return placement{}, false
	}
	if m := addressPattern.FindStringSubmatch(trimmed); m != nil {
		minutes, ok := clockMinutes(m[1], m[2])
		if !ok {
			return placement{}, false
		}
		street, ok := streetIndex(m[3])
		if !ok {
			return placement{}, false
		}
		return placement{Minutes: minutes, Street: street, Raw: trimmed}, true
	}
	if m := plazaPattern.FindStringSubmatch(trimmed); m != nil {
		minutes, ok := clockMinutes(m[1], m[2])
		if !ok {
			return placement{}, false
		}
		// Plazas sit mid-city; treat them as street B for distance.
		return placement{Minutes: minutes, Street: 2, Landmark: strings.ToLower(m[3]), Raw: trimmed}, true
	}
	if knownLandmarks[strings.ToLower(trimmed)] {
		return placement{Street: -1, Landmark: strings.ToLower(trimmed), Raw: trimmed}, true
	}
	return placement{}, false
}

func clockMinutes(hourStr, minStr string) (int, bool) {
	hour := atoiSafe(hourStr)
	minute := atoiSafe(minStr)
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, false
	}
	return (hour%12)*60 + minute, true
}

// streetIndex maps Esplanade and rings A through L onto 0..12.
func streetIndex(s string) (int, bool) {
	if strings.EqualFold(s, "esplanade") {
		return 0, true
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'L' {
		return int(s[0]-'A') + 1, true
	}
	return 0, false
}

// clockDistance is the shorter way around the 12-hour face, in minutes.
func clockDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 360 {
		d = 720 - d
	}
	return d
}

// streetDistance counts ring streets between two placements. Crossing
// to or from the Esplanade counts double because the open esplanade
// block is the widest in the city.
func streetDistance(a, b int) int {
	if a < 0 || b < 0 {
		return 99 // landmark placements have no ring distance
	}
	if a == b {
		return 0
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	if a == 0 || b == 0 {
		d++
	}
	return d
}

// Radius tiers, widest to narrowest.
const (
	RadiusImmediate    = "immediate"
	RadiusAdjacent     = "adjacent"
	RadiusNeighborhood = "neighborhood"
)

// radiusRank orders the tiers so a requested radius admits its own tier
// and every tighter one.
func radiusRank(radius string) (int, bool) {
	switch radius {
	case RadiusImmediate:
		return 1, true
	case RadiusAdjacent:
		return 2, true
	case RadiusNeighborhood:
		return 3, true
	default:
		return 0, false
	}
}

// classifyDistance buckets a neighbor into the three radius tiers.
// Both axes must fit the tier.
func classifyDistance(timeMin, streets int) (desc string, rank int, ok bool) {
	switch {
	case timeMin <= 15 && streets <= 1:
		return "Immediate neighbor", 1, true
	case timeMin <= 30 && streets <= 2:
		return "Adjacent block", 2, true
	case timeMin <= 60 && streets <= 3:
		return "Same neighborhood", 3, true
	default:
		return "", 0, false
	}
}

func neighborScore(timeMin, streets int) float64 {
	timePart := 1.0 - float64(timeMin)/60.0
	if timePart < 0 {
		timePart = 0
	}
	streetPart := 1.0 - float64(streets)/4.0
	if streetPart < 0 {
		streetPart = 0
	}
	return round3(0.6*timePart + 0.4*streetPart)
}

// LocationNeighbors finds camps placed near the named camp, per year the
// camp appears, and summarizes its placement pattern across years. The
// radius tier caps how far a neighbor may be.
func (s *Service) LocationNeighbors(ctx context.Context, campName string, year *int, radius string) NeighborsResult {
	campName = strings.TrimSpace(campName)
	if campName == "" {
		return NeighborsResult{OK: false, NeighborAnalysis: []YearNeighbors{}, Error: "empty camp name"}
	}
	maxRank, ok := radiusRank(radius)
	if !ok {
		return NeighborsResult{OK: false, NeighborAnalysis: []YearNeighbors{}, Error: fmt.Sprintf("unknown radius: %q", radius)}
	}

	placements, err := s.campPlacements(ctx, campName)
	if err != nil {
		s.log.Error("camp lookup failed", "camp", campName, "error", err)
		return NeighborsResult{OK: false, NeighborAnalysis: []YearNeighbors{}, Error: "camp lookup failed"}
	}
	if len(placements) == 0 {
		return NeighborsResult{OK: false, NeighborAnalysis: []YearNeighbors{}, Error: fmt.Sprintf("no placements found for camp %q", campName)}
	}

	years := make([]int, 0, len(placements))
	for y := range placements {
		if year != nil && y != *year {
			continue
		}
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) == 0 {
		return NeighborsResult{OK: false, NeighborAnalysis: []YearNeighbors{}, Error: fmt.Sprintf("camp %q has no placement in year %d", campName, *year)}
	}

	analysis := make([]YearNeighbors, 0, len(years))
	for _, y := range years {
		subject := placements[y]
		neighbors, err := s.neighborsForYear(ctx, campName, y, subject, maxRank)
		if err != nil {
			s.log.Warn("neighbor scan failed", "camp", campName, "year", y, "error", err)
			neighbors = []Neighbor{}
		}
		analysis = append(analysis, YearNeighbors{Year: y, Location: subject.Raw, Neighbors: neighbors})
	}

	result := NeighborsResult{OK: true, CampName: campName, NeighborAnalysis: analysis}
	allYears := make([]int, 0, len(placements))
	for y := range placements {
		allYears = append(allYears, y)
	}
	sort.Ints(allYears)
	result.Pattern = placementPattern(allYears, placements)
	return result
}

// campPlacements loads every year's parsed placement for a camp name.
func (s *Service) campPlacements(ctx context.Context, campName string) (map[int]placement, error) {
	items, err := s.items.ByName(ctx, s.db, campName)
	if err != nil {
		return nil, err
	}
	out := map[int]placement{}
	for _, item := range items {
		if item.ItemType != types.ItemTypeCamp {
			continue
		}
		p, ok := parsePlacement(item.LocationString)
		if !ok {
			continue
		}
		out[item.Year] = p
	}
	return out, nil
}

func (s *Service) neighborsForYear(ctx context.Context, campName string, year int, subject placement, maxRank int) ([]Neighbor, error) {
	camps, err := s.items.ByTypeAndYear(ctx, s.db, types.ItemTypeCamp, year, 2000)
	if err != nil {
		return nil, err
	}
	neighbors := []Neighbor{}
	for _, camp := range camps {
		if strings.EqualFold(camp.Name, campName) {
			continue
		}
		p, ok := parsePlacement(camp.LocationString)
		if !ok {
			continue
		}
		if subject.Street < 0 || p.Street < 0 {
			// Landmark placements only neighbor the same landmark.
			if subject.Landmark == "" || subject.Landmark != p.Landmark {
				continue
			}
			neighbors = append(neighbors, Neighbor{
				ID: camp.ID, Title: camp.Name, Location: camp.LocationString,
				DistanceDescription: "Immediate neighbor", Score: 1.0,
			})
			continue
		}
		timeMin := clockDistance(subject.Minutes, p.Minutes)
		streets := streetDistance(subject.Street, p.Street)
		desc, rank, within := classifyDistance(timeMin, streets)
		if !within || rank > maxRank {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			ID:                  camp.ID,
			Title:               camp.Name,
			Location:            camp.LocationString,
			TimeDistanceMinutes: timeMin,
			StreetDistance:      streets,
			DistanceDescription: desc,
			Score:               neighborScore(timeMin, streets),
		})
	}
	sortByScoreDesc(neighbors, func(n Neighbor) float64 { return n.Score }, func(n Neighbor) string { return n.Title })
	if len(neighbors) > 15 {
		neighbors = neighbors[:15]
	}
	return neighbors, nil
}

// placementPattern compares placements across years: identical address
// strings every year is "stable", anything else "mobile".
func placementPattern(years []int, placements map[int]placement) *PlacementPattern {
	if len(years) == 1 {
		return &PlacementPattern{YearsSeen: years, Pattern: "single_year"}
	}
	first := placements[years[0]].Raw
	pattern := "stable"
	for _, y := range years[1:] {
		if !strings.EqualFold(placements[y].Raw, first) {
			pattern = "mobile"
			break
		}
	}
	return &PlacementPattern{YearsSeen: years, Pattern: pattern}
}
