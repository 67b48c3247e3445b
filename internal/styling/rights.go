package styling

import (
	"fmt"
	"sort"

	"github.com/playalore/playalore/internal/types"
)

// Licenses that raise no restriction entry.
var permissiveLicenses = map[string]bool{
	"CC-BY":         true,
	"CC-BY-SA":      true,
	"Public Domain": true,
}

// SummarizeRights aggregates per-item rights metadata into an overall
// quotability verdict for the requested scope. Pure function.
func SummarizeRights(corpus []CorpusItem, requireRights string) RightsSummary {
	if len(corpus) == 0 {
		return RightsSummary{OK: false, Error: "Empty corpus", Restrictions: []Restriction{}}
	}

	visibility := map[string]int{}
	license := map[string]int{}
	consent := map[string]int{}
	attributionCount := 0
	citationCounts := map[string]int{}
	for _, item := range corpus {
		visibility[item.Rights.Visibility]++
		license[item.Rights.License]++
		consent[item.Rights.Consent]++
		if item.Rights.AttributionRequired {
			attributionCount++
		}
		for _, p := range item.Provenance {
			if p.Citation != "" {
				citationCounts[p.Citation]++
			}
		}
	}

	total := len(corpus)
	publicPct := float64(visibility["public"]) / float64(total) * 100
	publicOrInternalPct := float64(visibility["public"]+visibility["internal"]) / float64(total) * 100

	quotable := false
	switch requireRights {
	case types.RightsScopePublic:
		quotable = publicPct >= 60
	case types.RightsScopeInternal:
		quotable = publicOrInternalPct >= 60
	case types.RightsScopeAny:
		quotable = true
	}

	attributionRequired := float64(attributionCount)/float64(total) > 0.25
	var attributionText *string
	if attributionRequired {
		text := buildAttributionText(citationCounts)
		attributionText = &text
	}

	restrictions := []Restriction{}
	if n := visibility["private"]; n > 0 {
		restrictions = append(restrictions, Restriction{
			Kind:        "private_items",
			Count:       n,
			Description: fmt.Sprintf("%d item(s) have private visibility and cannot be quoted", n),
		})
	}
	nonPermissive := 0
	for lic, n := range license {
		if !permissiveLicenses[lic] {
			nonPermissive += n
		}
	}
	if nonPermissive > 0 {
		restrictions = append(restrictions, Restriction{
			Kind:        "restrictive_license",
			Count:       nonPermissive,
			Description: fmt.Sprintf("%d item(s) carry licenses outside CC-BY/CC-BY-SA/Public Domain", nonPermissive),
		})
	}
	if n := consent["withdrawn"]; n > 0 {
		restrictions = append(restrictions, Restriction{
			Kind:        "withdrawn_consent",
			Count:       n,
			Description: fmt.Sprintf("%d item(s) have withdrawn consent and must not be used", n),
		})
	}

	return RightsSummary{
		OK:                  true,
		Quotable:            quotable,
		AttributionRequired: attributionRequired,
		AttributionText:     attributionText,
		Visibility:          summaryVisibility(requireRights, visibility),
		RightsBreakdown: map[string]map[string]int{
			"visibility": visibility,
			"license":    license,
			"consent":    consent,
		},
		Restrictions:     restrictions,
		PublicPercentage: round2(publicPct),
	}
}

func summaryVisibility(requireRights string, visibility map[string]int) string {
	switch requireRights {
	case types.RightsScopePublic:
		return "public"
	case types.RightsScopeInternal:
		if visibility["public"] > 0 {
			return "public"
		}
		if visibility["internal"] > 0 {
			return "internal"
		}
		return "restricted"
	default:
		mode, best := "unknown", 0
		keys := make([]string, 0, len(visibility))
		for k := range visibility {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if visibility[k] > best {
				mode, best = k, visibility[k]
			}
		}
		return mode
	}
}

func buildAttributionText(citationCounts map[string]int) string {
	if len(citationCounts) == 0 {
		return "Based on: collected sources"
	}
	top, best := "", 0
	keys := make([]string, 0, len(citationCounts))
	for k := range citationCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if citationCounts[k] > best {
			top, best = k, citationCounts[k]
		}
	}
	if len(citationCounts) == 1 {
		return fmt.Sprintf("Based on: %s", top)
	}
	return fmt.Sprintf("Based on: %s and %d other sources", top, len(citationCounts)-1)
}
