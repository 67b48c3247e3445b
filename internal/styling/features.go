package styling

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/playalore/playalore/internal/types"
)

// Tone lexicon: a tone applies when its keywords hit the corpus text at
// least twice. At most three tones are reported.
var toneKeywords = map[string][]string{
	"reflective":    {"remember", "looking back", "reflection", "thought", "wonder", "realize", "memory"},
	"inspirational": {"inspire", "dream", "possibility", "imagine", "transform", "create", "vision of"},
	"practical":     {"how to", "steps", "prepare", "bring", "pack", "plan", "tools", "checklist"},
	"philosophical": {"meaning", "existence", "society", "culture", "human", "truth", "principle"},
	"communal":      {"together", "community", "everyone", "participate", "share", "gift", "collective"},
	"visionary":     {"future", "will become", "evolve", "beyond", "horizon", "new world"},
	"direct":        {"must", "need", "do not", "never", "always", "required"},
	"playful":       {"fun", "play", "joy", "laugh", "silly", "dance", "celebrate"},
}

// toneOrder keeps tone selection deterministic across map iteration.
var toneOrder = []string{
	"reflective", "inspirational", "practical", "philosophical",
	"communal", "visionary", "direct", "playful",
}

var commandVerbs = map[string]bool{
	"build": true, "create": true, "make": true, "give": true,
	"take": true, "bring": true, "leave": true, "participate": true,
	"embrace": true, "remember": true, "find": true, "join": true,
	"share": true, "respect": true, "go": true,
}

var vocabularyStopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "they": true,
	"have": true, "will": true, "your": true, "what": true, "when": true,
	"where": true, "which": true, "their": true, "about": true, "there": true,
}

// Domain phrases counted as metaphor candidates when present verbatim.
var domainMetaphorTerms = []string{
	"the playa provides",
	"city of dust",
	"temple of",
	"default world",
	"radical self-expression",
	"the man burns",
}

var (
	sentenceSplitter   = regexp.MustCompile(`[.!?]+`)
	wordPattern        = regexp.MustCompile(`[a-z]{4,}`)
	anyWordPattern     = regexp.MustCompile(`[A-Za-z']+`)
	triadPattern       = regexp.MustCompile(`\w+,\s+\w+,?\s+and\s+\w+`)
	metaphorIsPattern  = regexp.MustCompile(`(?i)\b(\w+(?:\s\w+)?)\s+is\s+(?:a|an|the)\s+(\w+)`)
	metaphorAsPattern  = regexp.MustCompile(`(?i)\b(\w+)\s+as\s+(?:a|an|the)\s+(\w+)`)
	metaphorLikePat    = regexp.MustCompile(`(?i)\blike\s+(?:a|an|the)\s+(\w+(?:\s\w+)?)`)
	dosPattern         = regexp.MustCompile(`(?i)\b(?:should|must|always|important to)\s+([^.!?\n]+)`)
	dontsPattern       = regexp.MustCompile(`(?i)\b(?:should not|shouldn't|never|avoid|don't|do not)\s+([^.!?\n]+)`)
	pronounWords       = map[string]bool{"i": true, "we": true, "you": true, "they": true, "he": true, "she": true, "it": true}
	modalWords         = map[string]bool{"must": true, "should": true, "will": true, "can": true, "may": true, "shall": true, "would": true, "could": true}
	conjunctionWords   = map[string]bool{"and": true, "but": true, "or": true, "because": true, "so": true, "yet": true}
)

// ExtractFeatures is a pure function over the collected corpus. Empty
// corpus text yields the documented all-empty shape with Error set; it
// never panics and touches no external state.
func ExtractFeatures(corpus []CorpusItem) Features {
	var sb strings.Builder
	for _, item := range corpus {
		text := strings.TrimSpace(item.Content)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Features{
			Capsule: types.Capsule{
				Tone:       []string{},
				Devices:    []string{},
				Vocabulary: []string{},
				Metaphors:  []string{},
				Dos:        []string{},
				Donts:      []string{},
				Era:        "unknown",
			},
			ConfidenceFactors: DefaultConfidenceFactors(),
			Error:             "Empty corpus text",
		}
	}

	lowered := strings.ToLower(text)
	sentences := splitSentences(text)

	capsule := types.Capsule{
		Tone:       extractTones(lowered),
		Cadence:    classifyCadence(sentences),
		Devices:    detectDevices(text, lowered, sentences),
		Vocabulary: topVocabulary(lowered),
		Metaphors:  extractMetaphors(text, lowered),
		Dos:        extractDirectives(text, dosPattern, true),
		Donts:      extractDirectives(text, dontsPattern, false),
		Era:        eraSpan(corpus),
	}

	return Features{
		Capsule:           capsule,
		ConfidenceFactors: computeConfidenceFactors(lowered, corpus),
	}
}

func splitSentences(text string) []string {
	parts := sentenceSplitter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractTones(lowered string) []string {
	type toneHit struct {
		tone string
		hits int
	}
	hits := make([]toneHit, 0, len(toneOrder))
	for _, tone := range toneOrder {
		count := 0
		for _, kw := range toneKeywords[tone] {
			count += strings.Count(lowered, kw)
		}
		if count >= 2 {
			hits = append(hits, toneHit{tone, count})
		}
	}
	if len(hits) == 0 {
		return []string{"neutral"}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].hits > hits[j].hits })
	if len(hits) > 3 {
		hits = hits[:3]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.tone)
	}
	return out
}

func classifyCadence(sentences []string) string {
	if len(sentences) == 0 {
		return "unknown"
	}
	totalWords := 0
	for _, s := range sentences {
		totalWords += len(anyWordPattern.FindAllString(s, -1))
	}
	mean := float64(totalWords) / float64(len(sentences))
	switch {
	case mean <= 8:
		return "short and punchy"
	case mean <= 15:
		return "medium rhythmic"
	case mean <= 25:
		return "flowing extended"
	default:
		return "long contemplative"
	}
}

func detectDevices(text, lowered string, sentences []string) []string {
	devices := []string{}
	if triadPattern.MatchString(text) || strings.Contains(lowered, "three") {
		devices = append(devices, "triads")
	}
	if hasRepetition(lowered) {
		devices = append(devices, "repetition")
	}
	if strings.Count(text, "?") > 2 {
		devices = append(devices, "rhetorical_questions")
	}
	if countImperatives(sentences) > 1 {
		devices = append(devices, "imperatives")
	}
	if hasParallelStructure(sentences) {
		devices = append(devices, "parallel_structure")
	}
	return devices
}

func hasRepetition(lowered string) bool {
	counts := map[string]int{}
	for _, w := range wordPattern.FindAllString(lowered, -1) {
		if len(w) > 4 {
			counts[w]++
			if counts[w] > 3 {
				return true
			}
		}
	}
	return false
}

func countImperatives(sentences []string) int {
	count := 0
	for _, s := range sentences {
		words := anyWordPattern.FindAllString(s, 1)
		if len(words) == 1 && commandVerbs[strings.ToLower(words[0])] {
			count++
		}
	}
	return count
}

// hasParallelStructure classifies the first three words of each sentence
// into coarse token classes and looks for a repeated signature.
func hasParallelStructure(sentences []string) bool {
	signatures := map[string]int{}
	for _, s := range sentences {
		words := anyWordPattern.FindAllString(s, 3)
		if len(words) < 3 {
			continue
		}
		tokens := make([]string, 3)
		for i, w := range words {
			tokens[i] = classifyToken(strings.ToLower(w))
		}
		sig := strings.Join(tokens, "-")
		signatures[sig]++
		if signatures[sig] >= 2 {
			return true
		}
	}
	return false
}

func classifyToken(word string) string {
	switch {
	case pronounWords[word]:
		return "PRONOUN"
	case modalWords[word]:
		return "MODAL"
	case conjunctionWords[word]:
		return "CONJUNCTION"
	case strings.HasSuffix(word, "ing") && len(word) > 4:
		return "GERUND"
	default:
		return "WORD"
	}
}

func topVocabulary(lowered string) []string {
	counts := map[string]int{}
	for _, w := range wordPattern.FindAllString(lowered, -1) {
		if vocabularyStopwords[w] {
			continue
		}
		counts[w]++
	}
	type scored struct {
		word  string
		score float64
	}
	candidates := make([]scored, 0, len(counts))
	for w, n := range counts {
		if n < 2 {
			continue
		}
		candidates = append(candidates, scored{w, float64(n) * math.Log(float64(len(w)))})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})
	if len(candidates) > 15 {
		candidates = candidates[:15]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.word)
	}
	return out
}

func extractMetaphors(text, lowered string) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(phrase string) {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" || seen[phrase] || len(out) >= 8 {
			return
		}
		seen[phrase] = true
		out = append(out, phrase)
	}
	for _, m := range metaphorIsPattern.FindAllStringSubmatch(text, -1) {
		add(m[0])
	}
	for _, m := range metaphorAsPattern.FindAllStringSubmatch(text, -1) {
		add(m[0])
	}
	for _, m := range metaphorLikePat.FindAllStringSubmatch(text, -1) {
		add(m[0])
	}
	for _, term := range domainMetaphorTerms {
		if strings.Contains(lowered, term) {
			add(term)
		}
	}
	return out
}

// extractDirectives mines do/don't directives off modal-verb patterns.
// The dos pattern would also match "should not ..."; RE2 has no
// lookahead, so negated captures are dropped here instead.
func extractDirectives(text string, pattern *regexp.Regexp, skipNegated bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		directive := strings.ToLower(strings.TrimSpace(m[1]))
		if skipNegated && (strings.HasPrefix(directive, "not ") || strings.HasPrefix(directive, "never ")) {
			continue
		}
		if len(directive) <= 5 || seen[directive] {
			continue
		}
		seen[directive] = true
		out = append(out, directive)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func eraSpan(corpus []CorpusItem) string {
	minYear, maxYear := 0, 0
	for _, item := range corpus {
		if item.Year <= 0 {
			continue
		}
		if minYear == 0 || item.Year < minYear {
			minYear = item.Year
		}
		if item.Year > maxYear {
			maxYear = item.Year
		}
	}
	if minYear == 0 {
		return "unknown"
	}
	if minYear == maxYear {
		return fmtYear(minYear)
	}
	return fmtYear(minYear) + "–" + fmtYear(maxYear)
}

func fmtYear(y int) string {
	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + y%10)
		y /= 10
	}
	return string(digits[:])
}

func computeConfidenceFactors(lowered string, corpus []CorpusItem) ConfidenceFactors {
	var textVolume float64
	switch n := len(lowered); {
	case n <= 500:
		textVolume = 0.3
	case n <= 2000:
		textVolume = 0.6
	case n <= 5000:
		textVolume = 0.8
	default:
		textVolume = 1.0
	}

	strategies := map[string]bool{}
	pools := map[string]bool{}
	minYear, maxYear := 0, 0
	for _, item := range corpus {
		strategies[item.Strategy] = true
		for _, p := range item.PoolsHit {
			pools[p] = true
		}
		if item.Year > 0 {
			if minYear == 0 || item.Year < minYear {
				minYear = item.Year
			}
			if item.Year > maxYear {
				maxYear = item.Year
			}
		}
	}

	strategyDiversity := float64(len(strategies)) / float64(StrategyCount)
	if strategyDiversity > 1 {
		strategyDiversity = 1
	}
	poolCoverage := float64(len(pools)) / float64(len(types.PoolNames))
	if poolCoverage > 1 {
		poolCoverage = 1
	}

	eraConsistency := 0.5
	if minYear > 0 {
		switch span := maxYear - minYear; {
		case span <= 2:
			eraConsistency = 1.0
		case span <= 5:
			eraConsistency = 0.8
		case span <= 10:
			eraConsistency = 0.6
		default:
			eraConsistency = 0.4
		}
	}

	return ConfidenceFactors{
		TextVolume:        textVolume,
		StrategyDiversity: strategyDiversity,
		PoolCoverage:      poolCoverage,
		EraConsistency:    eraConsistency,
	}
}
