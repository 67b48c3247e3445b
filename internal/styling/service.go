package styling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/redis"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

// Style application enums, validated at the tool boundary.
const (
	StyleModeOff    = "off"
	StyleModeLight  = "light"
	StyleModeMedium = "medium"
	StyleModeStrong = "strong"

	StyleScopeNarrationOnly = "narration_only"
	StyleScopeExamplesOnly  = "examples_only"
	StyleScopeFullAnswer    = "full_answer"
)

// SetPersonaParams are the validated set_persona inputs.
type SetPersonaParams struct {
	Persona       string
	StyleMode     string
	StyleScope    string
	Era           string
	RequireRights string
	MaxQuotePct   float64
}

// Validate checks every enum and range. Violations never reach the store.
func (p SetPersonaParams) Validate() error {
	switch p.StyleMode {
	case StyleModeOff, StyleModeLight, StyleModeMedium, StyleModeStrong:
	default:
		return fmt.Errorf("invalid style_mode: %q", p.StyleMode)
	}
	switch p.StyleScope {
	case StyleScopeNarrationOnly, StyleScopeExamplesOnly, StyleScopeFullAnswer:
	default:
		return fmt.Errorf("invalid style_scope: %q", p.StyleScope)
	}
	switch p.RequireRights {
	case "public", "internal", "any":
	default:
		return fmt.Errorf("invalid require_rights: %q", p.RequireRights)
	}
	if p.MaxQuotePct < 0 || p.MaxQuotePct > 0.2 {
		return fmt.Errorf("max_quote_pct must be in [0.0,0.2], got %g", p.MaxQuotePct)
	}
	return nil
}

// SetPersonaResponse wraps the capsule response with the style directives
// the caller asked to apply.
type SetPersonaResponse struct {
	*BuildResponse
	StyleMode   string  `json:"style_mode"`
	StyleScope  string  `json:"style_scope,omitempty"`
	MaxQuotePct float64 `json:"max_quote_pct,omitempty"`
}

// capsuleBuilder is the slice of Builder the persona service drives:
// key derivation, configuration, and the synchronous pipeline run.
type capsuleBuilder interface {
	Key(personaID, era string, rightsScope string) types.CapsuleKey
	Config() Config
	Build(ctx context.Context, req BuildRequest) *BuildResponse
}

// personaResolver canonicalizes free-form persona strings.
type personaResolver interface {
	Resolve(ctx context.Context, raw string) ResolveResult
}

// PersonaService drives the capsule lifecycle for set_persona: cache
// lookup, bounded fast-path build, async fallback.
type PersonaService struct {
	log      *logger.Logger
	builder  capsuleBuilder
	resolver personaResolver
	capsules repos.StyleCapsuleRepo
	cache    redis.PayloadCache
	db       *gorm.DB
	enqueue  BuildEnqueuer
}

func NewPersonaService(builder *Builder, enqueue BuildEnqueuer, baseLog *logger.Logger) *PersonaService {
	return &PersonaService{
		log:      baseLog.With("service", "PersonaService"),
		builder:  builder,
		resolver: builder.resolver,
		capsules: builder.capsules,
		cache:    builder.cache,
		db:       builder.db,
		enqueue:  enqueue,
	}
}

// SetPersona runs the full state machine. The response is always
// well-formed; validation failures carry error_code "invalid_params".
func (s *PersonaService) SetPersona(ctx context.Context, p SetPersonaParams) *SetPersonaResponse {
	if err := p.Validate(); err != nil {
		return &SetPersonaResponse{
			BuildResponse: &BuildResponse{OK: false, Error: err.Error(), ErrorCode: "invalid_params"},
			StyleMode:     p.StyleMode,
		}
	}
	if p.StyleMode == StyleModeOff {
		return &SetPersonaResponse{
			BuildResponse: &BuildResponse{OK: true},
			StyleMode:     StyleModeOff,
		}
	}
	if !s.builder.Config().Enabled {
		return &SetPersonaResponse{
			BuildResponse: &BuildResponse{OK: false, Error: "Persona styling is disabled", ErrorCode: "feature_disabled"},
			StyleMode:     p.StyleMode,
		}
	}

	resp := s.buildOrFallback(ctx, p)
	return &SetPersonaResponse{
		BuildResponse: resp,
		StyleMode:     p.StyleMode,
		StyleScope:    p.StyleScope,
		MaxQuotePct:   p.MaxQuotePct,
	}
}

// responseFromRow rebuilds a capsule response from the persisted row.
// The rights summary is not persisted, so the row-backed response omits
// it; callers needing rights detail trigger a fresh build by era or
// rights scope changes anyway.
func responseFromRow(row *types.StyleCapsule) (*BuildResponse, error) {
	var capsule types.Capsule
	if err := json.Unmarshal(row.CapsuleJSON, &capsule); err != nil {
		return nil, fmt.Errorf("decode capsule_json: %w", err)
	}
	var sources []types.SourceSummary
	if len(row.SourcesJSON) > 0 {
		if err := json.Unmarshal(row.SourcesJSON, &sources); err != nil {
			return nil, fmt.Errorf("decode sources_json: %w", err)
		}
	}
	return &BuildResponse{
		OK:              true,
		PersonaID:       row.PersonaID,
		PersonaLabel:    row.PersonaLabel,
		StyleCapsule:    &capsule,
		StyleConfidence: row.Confidence,
		Sources:         sources,
	}, nil
}

func (s *PersonaService) buildOrFallback(ctx context.Context, p SetPersonaParams) *BuildResponse {
	start := time.Now()
	req := BuildRequest{Persona: p.Persona, Era: p.Era, RightsScope: p.RequireRights}

	// The cache is keyed on the resolved persona id; resolution is cheap
	// relative to a build, so resolve first even on the hit path.
	resolved := s.resolver.Resolve(ctx, p.Persona)
	if !resolved.OK {
		return &BuildResponse{
			OK:    false,
			Error: resolved.Error,
			Meta:  &BuildMeta{Stage: StageResolvePersona, ElapsedMS: time.Since(start).Milliseconds()},
		}
	}
	key := s.builder.Key(resolved.PersonaID, p.Era, p.RequireRights)

	var cached BuildResponse
	hit, err := s.cache.Get(ctx, key.CacheKey(), &cached)
	if err != nil {
		s.log.Warn("capsule cache read failed", "key", key.CacheKey(), "error", err)
	}
	if hit && cached.OK {
		cached.Meta = &BuildMeta{Cache: "hit", ElapsedMS: time.Since(start).Milliseconds()}
		return &cached
	}

	// The database row is authoritative; a valid row with a cold cache
	// still counts as a hit, and the cache is backfilled for next time.
	if row, err := s.capsules.FindValid(ctx, s.db, key); err != nil {
		s.log.Warn("capsule row lookup failed", "key", key.CacheKey(), "error", err)
	} else if row != nil {
		resp, err := responseFromRow(row)
		if err != nil {
			s.log.Warn("capsule row decode failed", "key", key.CacheKey(), "error", err)
		} else {
			if ttl := time.Until(row.ExpiresAt); ttl > 0 {
				if err := s.cache.Set(ctx, key.CacheKey(), resp, ttl); err != nil {
					s.log.Warn("capsule cache backfill failed", "key", key.CacheKey(), "error", err)
				}
			}
			resp.Meta = &BuildMeta{Cache: "hit", ElapsedMS: time.Since(start).Milliseconds()}
			return resp
		}
	}

	// Fast path: attempt the build synchronously under a hard wall-clock
	// budget. On timeout only the caller gives up; the detached context
	// lets the in-flight build finish and warm the cache for the next
	// caller.
	buildCtx := context.WithoutCancel(ctx)
	done := make(chan *BuildResponse, 1)
	go func() {
		done <- s.builder.Build(buildCtx, req)
	}()

	timer := time.NewTimer(s.builder.Config().FastPathTimeout)
	defer timer.Stop()
	select {
	case resp := <-done:
		// A failed fast build is a terminal answer, not a timeout; do
		// not enqueue a retry that would fail the same way.
		return resp
	case <-timer.C:
		s.log.Info("fast-path build timed out, enqueueing async build",
			"persona", resolved.PersonaID, "era", p.Era, "rights", p.RequireRights)
		if s.enqueue != nil {
			if err := s.enqueue.EnqueueCapsuleBuild(context.WithoutCancel(ctx), req); err != nil {
				s.log.Error("async build enqueue failed", "persona", resolved.PersonaID, "error", err)
			}
		}
		resp := MinimalCapsuleResponse(resolved.PersonaID, resolved.PersonaLabel)
		resp.Meta.ElapsedMS = time.Since(start).Milliseconds()
		return resp
	}
}
