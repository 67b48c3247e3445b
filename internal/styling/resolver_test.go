package styling

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/pools"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

type fakeItemRepo struct {
	semantic []repos.ScoredItem
}

func (f *fakeItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) FilterByTypes(ctx context.Context, tx *gorm.DB, itemTypes []string, limit int) ([]*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) TextMatch(ctx context.Context, tx *gorm.DB, substr string, limit int) ([]*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) ByName(ctx context.Context, tx *gorm.DB, name string) ([]*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) ByTypeAndYear(ctx context.Context, tx *gorm.DB, itemType string, year int, limit int) ([]*types.Item, error) {
	return nil, nil
}

func (f *fakeItemRepo) SemanticSearch(ctx context.Context, tx *gorm.DB, query []float32, limit int) ([]repos.ScoredItem, error) {
	return f.semantic, nil
}

type fakeEntityRepo struct {
	byItemIDs []*types.Entity
	exact     []*types.Entity
	valueLike []*types.Entity
}

func (f *fakeEntityRepo) GetByItemIDs(ctx context.Context, tx *gorm.DB, itemIDs []string) ([]*types.Entity, error) {
	return f.byItemIDs, nil
}

func (f *fakeEntityRepo) FilterByTypeAndValueLike(ctx context.Context, tx *gorm.DB, entityType, valueLike string, limit int) ([]*types.Entity, error) {
	return f.valueLike, nil
}

func (f *fakeEntityRepo) ExactValue(ctx context.Context, tx *gorm.DB, entityType, value string, limit int) ([]*types.Entity, error) {
	return f.exact, nil
}

func (f *fakeEntityRepo) EntitiesByTypes(ctx context.Context, tx *gorm.DB, entityTypes []string, limit int) ([]*types.Entity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) DistinctValuesByType(ctx context.Context, tx *gorm.DB, entityType string, limit int) ([]repos.EntityValueRow, error) {
	return nil, nil
}

func (f *fakeEntityRepo) GroupCountByType(ctx context.Context, tx *gorm.DB, itemIDs []string) (map[string]int64, error) {
	return nil, nil
}

func (f *fakeEntityRepo) JoinCooccurrence(ctx context.Context, tx *gorm.DB, itemID string, limit int) ([]repos.CooccurrenceRow, error) {
	return nil, nil
}

type fakeAnalyzer struct {
	result *pools.AnalysisResult
}

func (f *fakeAnalyzer) AnalyzeText(ctx context.Context, text, mode string, linkThreshold float64) (*pools.AnalysisResult, error) {
	return f.result, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	vecs := make([][]float32, len(inputs))
	for i := range vecs {
		vecs[i] = []float32{0.1, 0.2}
	}
	return vecs, nil
}

func testResolver(t *testing.T, items *fakeItemRepo, entities *fakeEntityRepo, analyzer PoolAnalyzer) *Resolver {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewResolver(nil, items, entities, analyzer, &fakeEmbedder{}, log)
}

func TestResolveEmptyInput(t *testing.T) {
	r := testResolver(t, &fakeItemRepo{}, &fakeEntityRepo{}, nil)
	res := r.Resolve(context.Background(), "   ")
	if res.OK {
		t.Fatalf("empty input: want OK=false")
	}
	if res.Error != "empty persona" {
		t.Fatalf("error: got=%q", res.Error)
	}
}

func TestResolveDirectID(t *testing.T) {
	entities := &fakeEntityRepo{
		valueLike: []*types.Entity{{EntityType: types.EntityTypePerson, EntityValue: "larry harvey"}},
	}
	r := testResolver(t, &fakeItemRepo{}, entities, nil)
	res := r.Resolve(context.Background(), "person:larry_harvey")
	if !res.OK {
		t.Fatalf("direct id: want OK=true, error=%q", res.Error)
	}
	if res.PersonaID != "person:larry_harvey" {
		t.Fatalf("persona_id: got=%q", res.PersonaID)
	}
	if res.PersonaLabel != "Larry Harvey" {
		t.Fatalf("label: got=%q", res.PersonaLabel)
	}
}

func TestResolveDirectIDRejectsMalformed(t *testing.T) {
	// Missing kind prefix means tier 1 never fires; with empty exact and
	// valueLike results and no analyzer the chain falls through.
	entities := &fakeEntityRepo{}
	r := testResolver(t, &fakeItemRepo{}, entities, nil)
	res := r.Resolve(context.Background(), "robot:larry_harvey")
	if res.OK {
		t.Fatalf("unknown kind: want OK=false")
	}
}

func TestResolveExactEntity(t *testing.T) {
	entities := &fakeEntityRepo{
		exact: []*types.Entity{{EntityType: types.EntityTypePerson, EntityValue: "Marian Goodell"}},
	}
	r := testResolver(t, &fakeItemRepo{}, entities, nil)
	res := r.Resolve(context.Background(), "Marian Goodell")
	if !res.OK {
		t.Fatalf("exact: want OK=true, error=%q", res.Error)
	}
	if res.PersonaID != "person:marian_goodell" {
		t.Fatalf("persona_id: got=%q", res.PersonaID)
	}
	if res.PersonaLabel != "Marian Goodell" {
		t.Fatalf("label: got=%q", res.PersonaLabel)
	}
}

func TestResolveFuzzyPicksHighestConfidence(t *testing.T) {
	analyzer := &fakeAnalyzer{result: &pools.AnalysisResult{
		OK: true,
		Matches: []pools.Match{
			{Span: "black rock city", Pool: types.PoolManifest, EntityType: types.PoolEntityType(types.PoolManifest), Confidence: 0.9},
			{Span: "larry harvey", Pool: types.PoolIdea, EntityType: types.EntityTypePerson, Confidence: 0.8},
			{Span: "radical inclusion", Pool: types.PoolIdea, EntityType: types.PoolEntityType(types.PoolIdea), Confidence: 0.7},
		},
	}}
	r := testResolver(t, &fakeItemRepo{}, &fakeEntityRepo{}, analyzer)
	res := r.Resolve(context.Background(), "the founder larry harvey")
	if !res.OK {
		t.Fatalf("fuzzy: want OK=true, error=%q", res.Error)
	}
	if res.PersonaID != "person:larry_harvey" {
		t.Fatalf("persona_id: got=%q", res.PersonaID)
	}
}

func TestResolveSemanticFallback(t *testing.T) {
	items := &fakeItemRepo{semantic: []repos.ScoredItem{
		{Item: &types.Item{ID: "i1", Name: "Essay"}, Score: 0.9},
	}}
	entities := &fakeEntityRepo{
		byItemIDs: []*types.Entity{
			{ItemID: "i1", EntityType: types.PoolEntityType(types.PoolIdea), EntityValue: "gifting"},
			{ItemID: "i1", EntityType: types.EntityTypePerson, EntityValue: "Larry Harvey"},
		},
	}
	r := testResolver(t, items, entities, nil)
	res := r.Resolve(context.Background(), "larry")
	if !res.OK {
		t.Fatalf("semantic: want OK=true, error=%q", res.Error)
	}
	if res.PersonaID != "person:larry_harvey" {
		t.Fatalf("persona_id: got=%q", res.PersonaID)
	}
	if res.PersonaLabel != "Larry Harvey" {
		t.Fatalf("label: got=%q", res.PersonaLabel)
	}
}

func TestResolveAllTiersMiss(t *testing.T) {
	r := testResolver(t, &fakeItemRepo{}, &fakeEntityRepo{}, nil)
	res := r.Resolve(context.Background(), "nobody in particular")
	if res.OK {
		t.Fatalf("miss: want OK=false")
	}
	if res.Error != "Could not resolve persona: nobody in particular" {
		t.Fatalf("error: got=%q", res.Error)
	}
}
