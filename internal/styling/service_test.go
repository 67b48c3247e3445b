package styling

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/types"
)

type scriptedBuilder struct {
	cfg     Config
	buildFn func(context.Context, BuildRequest) *BuildResponse

	mu     sync.Mutex
	builds int
}

func (b *scriptedBuilder) Key(personaID, era string, rightsScope string) types.CapsuleKey {
	return types.CapsuleKey{
		PersonaID:      personaID,
		Era:            era,
		RightsScope:    rightsScope,
		GraphVersion:   b.cfg.GraphVersion,
		LexiconVersion: b.cfg.LexiconVersion,
	}
}

func (b *scriptedBuilder) Config() Config { return b.cfg }

func (b *scriptedBuilder) Build(ctx context.Context, req BuildRequest) *BuildResponse {
	b.mu.Lock()
	b.builds++
	b.mu.Unlock()
	return b.buildFn(ctx, req)
}

func (b *scriptedBuilder) buildCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

type scriptedResolver struct {
	res ResolveResult
}

func (r *scriptedResolver) Resolve(ctx context.Context, raw string) ResolveResult { return r.res }

// memCache round-trips payloads through JSON, matching the wire shape of
// the redis-backed cache.
type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type fakeCapsuleStore struct {
	row *types.StyleCapsule
}

func (f *fakeCapsuleStore) FindValid(ctx context.Context, tx *gorm.DB, key types.CapsuleKey) (*types.StyleCapsule, error) {
	return f.row, nil
}

func (f *fakeCapsuleStore) Upsert(ctx context.Context, tx *gorm.DB, capsule *types.StyleCapsule) error {
	f.row = capsule
	return nil
}

func (f *fakeCapsuleStore) DueForRefresh(ctx context.Context, tx *gorm.DB, window time.Duration, limit int) ([]*types.StyleCapsule, error) {
	return nil, nil
}

func (f *fakeCapsuleStore) DeleteExpiredBatch(ctx context.Context, tx *gorm.DB, batchSize int) (int64, error) {
	return 0, nil
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	reqs []BuildRequest
}

func (e *recordingEnqueuer) EnqueueCapsuleBuild(ctx context.Context, req BuildRequest) error {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()
	return nil
}

func (e *recordingEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.reqs)
}

func testPersonaService(t *testing.T, builder *scriptedBuilder, cache *memCache, store *fakeCapsuleStore, enqueue BuildEnqueuer) *PersonaService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &PersonaService{
		log:     log.With("service", "PersonaService"),
		builder: builder,
		resolver: &scriptedResolver{res: ResolveResult{
			OK:           true,
			PersonaID:    "person:larry_harvey",
			PersonaLabel: "Larry Harvey",
		}},
		capsules: store,
		cache:    cache,
		enqueue:  enqueue,
	}
}

func enabledConfig() Config {
	return Config{
		Enabled:         true,
		CapsuleTTL:      time.Hour,
		FastPathTimeout: 200 * time.Millisecond,
		GraphVersion:    "v1",
		LexiconVersion:  "v1",
	}
}

func builtResponse() *BuildResponse {
	return &BuildResponse{
		OK:              true,
		PersonaID:       "person:larry_harvey",
		PersonaLabel:    "Larry Harvey",
		StyleCapsule:    &types.Capsule{Tone: []string{"visionary"}, Cadence: "flowing", Era: "1996-2004"},
		StyleConfidence: 0.72,
		Meta:            &BuildMeta{Cache: "miss", BuildStatus: "built"},
	}
}

func validParams() SetPersonaParams {
	return SetPersonaParams{
		Persona:       "larry harvey",
		StyleMode:     StyleModeLight,
		StyleScope:    StyleScopeFullAnswer,
		RequireRights: "public",
		MaxQuotePct:   0.1,
	}
}

func TestSetPersonaParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SetPersonaParams)
		wantErr string
	}{
		{"valid", func(p *SetPersonaParams) {}, ""},
		{"off mode", func(p *SetPersonaParams) { p.StyleMode = StyleModeOff }, ""},
		{"strong mode", func(p *SetPersonaParams) { p.StyleMode = StyleModeStrong }, ""},
		{"bad mode", func(p *SetPersonaParams) { p.StyleMode = "loud" }, "invalid style_mode"},
		{"bad scope", func(p *SetPersonaParams) { p.StyleScope = "everything" }, "invalid style_scope"},
		{"bad rights", func(p *SetPersonaParams) { p.RequireRights = "secret" }, "invalid require_rights"},
		{"quote pct negative", func(p *SetPersonaParams) { p.MaxQuotePct = -0.01 }, "max_quote_pct"},
		{"quote pct too high", func(p *SetPersonaParams) { p.MaxQuotePct = 0.21 }, "max_quote_pct"},
		{"quote pct at cap", func(p *SetPersonaParams) { p.MaxQuotePct = 0.2 }, ""},
		{"quote pct zero", func(p *SetPersonaParams) { p.MaxQuotePct = 0 }, ""},
	}
	for _, tt := range tests {
		p := validParams()
		tt.mutate(&p)
		err := p.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%s: want error containing %q, got nil", tt.name, tt.wantErr)
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: want error containing %q, got %q", tt.name, tt.wantErr, err.Error())
		}
	}
}

func TestSetPersonaOffModeShortCircuits(t *testing.T) {
	builder := &scriptedBuilder{cfg: enabledConfig()}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, nil)

	p := validParams()
	p.StyleMode = StyleModeOff
	resp := svc.SetPersona(context.Background(), p)
	if !resp.OK || resp.StyleMode != StyleModeOff {
		t.Fatalf("off mode: got OK=%v mode=%q", resp.OK, resp.StyleMode)
	}
	if builder.buildCount() != 0 {
		t.Fatalf("off mode: want no builds, got %d", builder.buildCount())
	}
}

func TestSetPersonaFeatureDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	builder := &scriptedBuilder{cfg: cfg}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, nil)

	resp := svc.SetPersona(context.Background(), validParams())
	if resp.OK {
		t.Fatalf("disabled: want OK=false")
	}
	if resp.ErrorCode != "feature_disabled" {
		t.Fatalf("error code: got=%q", resp.ErrorCode)
	}
}

func TestSetPersonaInvalidParamsErrorCode(t *testing.T) {
	builder := &scriptedBuilder{cfg: enabledConfig()}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, nil)

	p := validParams()
	p.StyleScope = "everything"
	resp := svc.SetPersona(context.Background(), p)
	if resp.OK || resp.ErrorCode != "invalid_params" {
		t.Fatalf("invalid params: got OK=%v code=%q", resp.OK, resp.ErrorCode)
	}
}

func TestSetPersonaCacheHit(t *testing.T) {
	builder := &scriptedBuilder{cfg: enabledConfig()}
	cache := newMemCache()
	svc := testPersonaService(t, builder, cache, &fakeCapsuleStore{}, nil)

	key := builder.Key("person:larry_harvey", "", "public")
	if err := cache.Set(context.Background(), key.CacheKey(), builtResponse(), time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	cache.sets = 0

	p := validParams()
	resp := svc.SetPersona(context.Background(), p)
	if !resp.OK {
		t.Fatalf("cache hit: want OK, error=%q", resp.Error)
	}
	if resp.Meta == nil || resp.Meta.Cache != "hit" {
		t.Fatalf("meta cache: got=%+v", resp.Meta)
	}
	if resp.StyleCapsule == nil || resp.StyleCapsule.Cadence != "flowing" {
		t.Fatalf("capsule round trip: got=%+v", resp.StyleCapsule)
	}
	if resp.StyleConfidence != 0.72 {
		t.Fatalf("confidence round trip: got=%g", resp.StyleConfidence)
	}
	if builder.buildCount() != 0 {
		t.Fatalf("cache hit: want no builds, got %d", builder.buildCount())
	}
}

func TestSetPersonaRowFallbackBackfillsCache(t *testing.T) {
	builder := &scriptedBuilder{cfg: enabledConfig()}
	cache := newMemCache()

	capsuleJSON, _ := json.Marshal(types.Capsule{Tone: []string{"communal"}, Cadence: "building", Era: "unknown"})
	sourcesJSON, _ := json.Marshal([]types.SourceSummary{{ItemID: "i1", Name: "Essay", Score: 0.9}})
	store := &fakeCapsuleStore{row: &types.StyleCapsule{
		PersonaID:    "person:larry_harvey",
		PersonaLabel: "Larry Harvey",
		RightsScope:  "public",
		CapsuleJSON:  capsuleJSON,
		SourcesJSON:  sourcesJSON,
		Confidence:   0.55,
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	svc := testPersonaService(t, builder, cache, store, nil)

	resp := svc.SetPersona(context.Background(), validParams())
	if !resp.OK {
		t.Fatalf("row fallback: want OK, error=%q", resp.Error)
	}
	if resp.Meta == nil || resp.Meta.Cache != "hit" {
		t.Fatalf("meta cache: got=%+v", resp.Meta)
	}
	if resp.StyleConfidence != 0.55 {
		t.Fatalf("confidence: want=0.55 got=%g", resp.StyleConfidence)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].ItemID != "i1" {
		t.Fatalf("sources: got=%+v", resp.Sources)
	}
	if cache.sets != 1 {
		t.Fatalf("cache backfill: want=1 set, got=%d", cache.sets)
	}
	if builder.buildCount() != 0 {
		t.Fatalf("row fallback: want no builds, got %d", builder.buildCount())
	}
}

func TestSetPersonaFastPathBuilds(t *testing.T) {
	builder := &scriptedBuilder{
		cfg: enabledConfig(),
		buildFn: func(ctx context.Context, req BuildRequest) *BuildResponse {
			return builtResponse()
		},
	}
	enqueue := &recordingEnqueuer{}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, enqueue)

	resp := svc.SetPersona(context.Background(), validParams())
	if !resp.OK {
		t.Fatalf("fast path: want OK, error=%q", resp.Error)
	}
	if resp.Meta == nil || resp.Meta.BuildStatus != "built" {
		t.Fatalf("meta: got=%+v", resp.Meta)
	}
	if builder.buildCount() != 1 {
		t.Fatalf("builds: want=1 got=%d", builder.buildCount())
	}
	if enqueue.count() != 0 {
		t.Fatalf("enqueues: want=0 got=%d", enqueue.count())
	}
}

func TestSetPersonaTimeoutReturnsMinimalAndEnqueues(t *testing.T) {
	cfg := enabledConfig()
	cfg.FastPathTimeout = 10 * time.Millisecond
	release := make(chan struct{})
	builder := &scriptedBuilder{
		cfg: cfg,
		buildFn: func(ctx context.Context, req BuildRequest) *BuildResponse {
			<-release
			return builtResponse()
		},
	}
	enqueue := &recordingEnqueuer{}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, enqueue)

	resp := svc.SetPersona(context.Background(), validParams())
	close(release)

	if !resp.OK {
		t.Fatalf("timeout: want OK minimal response, error=%q", resp.Error)
	}
	if resp.StyleConfidence != 0.1 {
		t.Fatalf("minimal confidence: want=0.1 got=%g", resp.StyleConfidence)
	}
	if resp.Meta == nil || resp.Meta.BuildStatus != "enqueued" || resp.Meta.Cache != "miss" {
		t.Fatalf("meta: got=%+v", resp.Meta)
	}
	if enqueue.count() != 1 {
		t.Fatalf("enqueues: want=1 got=%d", enqueue.count())
	}
}

func TestSetPersonaFailedBuildIsTerminal(t *testing.T) {
	builder := &scriptedBuilder{
		cfg: enabledConfig(),
		buildFn: func(ctx context.Context, req BuildRequest) *BuildResponse {
			return &BuildResponse{
				OK:    false,
				Error: "No style corpus found",
				Meta:  &BuildMeta{Stage: StageCollectCorpus},
			}
		},
	}
	enqueue := &recordingEnqueuer{}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, enqueue)

	resp := svc.SetPersona(context.Background(), validParams())
	if resp.OK {
		t.Fatalf("failed build: want OK=false")
	}
	if resp.Meta == nil || resp.Meta.Stage != StageCollectCorpus {
		t.Fatalf("stage: got=%+v", resp.Meta)
	}
	if enqueue.count() != 0 {
		t.Fatalf("failed build must not enqueue a retry, got %d", enqueue.count())
	}
}

func TestSetPersonaResolveFailure(t *testing.T) {
	builder := &scriptedBuilder{cfg: enabledConfig()}
	svc := testPersonaService(t, builder, newMemCache(), &fakeCapsuleStore{}, nil)
	svc.resolver = &scriptedResolver{res: ResolveResult{OK: false, Error: "Could not resolve persona: nobody"}}

	resp := svc.SetPersona(context.Background(), validParams())
	if resp.OK {
		t.Fatalf("resolve failure: want OK=false")
	}
	if resp.Meta == nil || resp.Meta.Stage != StageResolvePersona {
		t.Fatalf("stage: got=%+v", resp.Meta)
	}
}
