package styling

import (
	"reflect"
	"strings"
	"testing"
)

func corpusOf(texts ...string) []CorpusItem {
	items := make([]CorpusItem, 0, len(texts))
	for i, text := range texts {
		items = append(items, CorpusItem{
			ID:      "item-" + string(rune('a'+i)),
			Content: text,
			Year:    2000 + i,
		})
	}
	return items
}

func TestExtractFeaturesEmptyCorpus(t *testing.T) {
	for _, corpus := range [][]CorpusItem{nil, {}, {{ID: "x", Content: "   "}}} {
		f := ExtractFeatures(corpus)
		if f.Error != "Empty corpus text" {
			t.Fatalf("error: want=%q got=%q", "Empty corpus text", f.Error)
		}
		if f.Capsule.Era != "unknown" {
			t.Fatalf("era: want=unknown got=%q", f.Capsule.Era)
		}
		if len(f.Capsule.Tone) != 0 || len(f.Capsule.Vocabulary) != 0 {
			t.Fatalf("capsule not empty: %+v", f.Capsule)
		}
		if f.ConfidenceFactors != DefaultConfidenceFactors() {
			t.Fatalf("factors: want defaults got=%+v", f.ConfidenceFactors)
		}
	}
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	corpus := corpusOf(
		"Remember the community. We gift together, we share together, we participate together.",
		"You must bring water. You must leave no trace. Never leave waste behind.",
	)
	first := ExtractFeatures(corpus)
	for i := 0; i < 5; i++ {
		again := ExtractFeatures(corpus)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst=%+v\nagain=%+v", i, first, again)
		}
	}
}

func TestExtractTones(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "communal dominates",
			text: "together we share, together we gift, the community participates",
			want: []string{"communal"},
		},
		{
			name: "no tone twice means neutral",
			text: "the weather was warm and the dust was everywhere",
			want: []string{"neutral"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTones(strings.ToLower(tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("tones: want=%v got=%v", tt.want, got)
			}
		})
	}
}

func TestExtractTonesCapsAtThree(t *testing.T) {
	text := "remember memory thought. inspire dream imagine. how to plan pack. " +
		"meaning truth culture. together community share. fun play joy."
	got := extractTones(text)
	if len(got) != 3 {
		t.Fatalf("tone count: want=3 got=%d (%v)", len(got), got)
	}
}

func TestClassifyCadence(t *testing.T) {
	tests := []struct {
		name      string
		sentences []string
		want      string
	}{
		{"empty", nil, "unknown"},
		{"short", []string{"Burn bright", "Stay safe"}, "short and punchy"},
		{"medium", []string{"The city rises from the dust every single year again and again anew"}, "medium rhythmic"},
		{"flowing", []string{strings.Repeat("word ", 20)}, "flowing extended"},
		{"long", []string{strings.Repeat("word ", 30)}, "long contemplative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyCadence(tt.sentences); got != tt.want {
				t.Fatalf("cadence: want=%q got=%q", tt.want, got)
			}
		})
	}
}

func TestDetectDevices(t *testing.T) {
	text := "Dust, fire, and joy. Why do we build? Why do we burn? Why do we return? " +
		"Build the temple. Bring your gifts. We must burn. We must give."
	devices := detectDevices(text, strings.ToLower(text), splitSentences(text))
	wantSome := []string{"triads", "rhetorical_questions", "imperatives"}
	for _, w := range wantSome {
		found := false
		for _, d := range devices {
			if d == w {
				found = true
			}
		}
		if !found {
			t.Fatalf("device %q missing from %v", w, devices)
		}
	}
}

func TestTopVocabularyOrderingAndFilter(t *testing.T) {
	// "playa" appears 3x, "burn" is too short a hit only via "burning".
	text := "playa playa playa burning burning that that that that"
	got := topVocabulary(text)
	if len(got) == 0 || got[0] != "playa" {
		t.Fatalf("vocabulary head: want=playa got=%v", got)
	}
	for _, w := range got {
		if w == "that" {
			t.Fatalf("stopword leaked into vocabulary: %v", got)
		}
	}
}

func TestExtractMetaphorsDomainTerms(t *testing.T) {
	text := "They say the playa provides. Out here beyond the default world we build a city of dust."
	got := extractMetaphors(text, strings.ToLower(text))
	want := map[string]bool{"the playa provides": true, "default world": true, "city of dust": true}
	for phrase := range want {
		found := false
		for _, m := range got {
			if m == phrase {
				found = true
			}
		}
		if !found {
			t.Fatalf("metaphor %q missing from %v", phrase, got)
		}
	}
}

func TestExtractDirectives(t *testing.T) {
	text := "You should bring plenty of water. You must respect the community. " +
		"You should not trample the art. Never leave trash on the playa."
	dos := extractDirectives(text, dosPattern, true)
	donts := extractDirectives(text, dontsPattern, false)

	for _, d := range dos {
		if strings.HasPrefix(d, "not ") || strings.HasPrefix(d, "never ") {
			t.Fatalf("negated directive leaked into dos: %q", d)
		}
	}
	if len(dos) == 0 {
		t.Fatalf("dos empty, want at least one")
	}
	if len(donts) == 0 {
		t.Fatalf("donts empty, want at least one")
	}
	foundTrash := false
	for _, d := range donts {
		if strings.Contains(d, "trash") {
			foundTrash = true
		}
	}
	if !foundTrash {
		t.Fatalf("donts: want trash directive, got %v", donts)
	}
}

func TestEraSpan(t *testing.T) {
	tests := []struct {
		name   string
		corpus []CorpusItem
		want   string
	}{
		{"no years", []CorpusItem{{Year: 0}}, "unknown"},
		{"single year", []CorpusItem{{Year: 1996}, {Year: 1996}}, "1996"},
		{"span", []CorpusItem{{Year: 1990}, {Year: 2004}}, "1990–2004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eraSpan(tt.corpus); got != tt.want {
				t.Fatalf("era: want=%q got=%q", tt.want, got)
			}
		})
	}
}

func TestComputeConfidenceFactors(t *testing.T) {
	corpus := []CorpusItem{
		{Strategy: StrategySemanticSearch, PoolsHit: []string{"idea"}, Year: 2001},
		{Strategy: StrategyAuthoredContent, PoolsHit: []string{"idea", "manifest"}, Year: 2002},
	}
	f := computeConfidenceFactors(strings.Repeat("a", 300), corpus)
	if f.TextVolume != 0.3 {
		t.Fatalf("text volume: want=0.3 got=%g", f.TextVolume)
	}
	if f.StrategyDiversity != 2.0/5.0 {
		t.Fatalf("strategy diversity: want=0.4 got=%g", f.StrategyDiversity)
	}
	if f.PoolCoverage != 2.0/7.0 {
		t.Fatalf("pool coverage: want=%g got=%g", 2.0/7.0, f.PoolCoverage)
	}
	if f.EraConsistency != 1.0 {
		t.Fatalf("era consistency: want=1.0 got=%g", f.EraConsistency)
	}
}

func TestConfidenceFactorsMean(t *testing.T) {
	f := ConfidenceFactors{TextVolume: 1, StrategyDiversity: 0.5, PoolCoverage: 0.5, EraConsistency: 0}
	if got := f.Mean(); got != 0.5 {
		t.Fatalf("mean: want=0.5 got=%g", got)
	}
}
