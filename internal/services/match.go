package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

const (
	matchLimit    = 10
	candidatePool = 500
	MatchJobs     = "job"
	MatchProfiles = "professional"
)

// matchAliases accepts the plural spellings of the match types.
var matchAliases = map[string]string{
	"jobs":          MatchJobs,
	"professionals": MatchProfiles,
}

// MatchService ranks public jobs or professionals against a free-text
// query by embedding similarity.
type MatchService struct {
	db       *gorm.DB
	embedder Embedder
}

func NewMatchService(db *gorm.DB, embedder Embedder) *MatchService {
	return &MatchService{db: db, embedder: embedder}
}

type MatchRequest struct {
	Query string `json:"query" binding:"required,max=2000"`
	Type  string `json:"type" binding:"required,oneof=job professional jobs professionals"`
}

type JobMatch struct {
	Job   models.Job `json:"job"`
	Score *float64   `json:"score"`
}

type ProfileMatch struct {
	Profile models.ProfessionalProfile `json:"profile"`
	Score   *float64                   `json:"score"`
}

// MatchResult holds the ranked items of the requested type.
type MatchResult struct {
	Type          string         `json:"type"`
	Jobs          []JobMatch     `json:"jobs,omitempty"`
	Professionals []ProfileMatch `json:"professionals,omitempty"`
}

// Match embeds the query and returns at most ten items, best first.
// Items not yet embedded follow the scored ones in listing order.
func (s *MatchService) Match(ctx context.Context, req *MatchRequest) (*MatchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, invalid("query", "is required")
	}
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if alias, ok := matchAliases[kind]; ok {
		kind = alias
	}
	if kind != MatchJobs && kind != MatchProfiles {
		return nil, invalid("type", "must be one of: job professional")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("matching: %w", ErrNotConfigured)
	}

	pctx, cancel := providerContext(ctx)
	vec, err := s.embedder.Embed(pctx, query)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embed query: %v: %w", err, ErrUpstream)
	}

	if kind == MatchProfiles {
		return s.matchProfiles(ctx, vec)
	}
	return s.matchJobs(ctx, vec)
}

func (s *MatchService) matchJobs(ctx context.Context, vec []float32) (*MatchResult, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).Where("is_public = ?", true).
		Order("created_at DESC").Limit(candidatePool).Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	order := rank(len(jobs), func(i int) []float32 { return jobs[i].Embedding }, vec)
	result := &MatchResult{Type: MatchJobs, Jobs: make([]JobMatch, 0, len(order))}
	for _, r := range order {
		result.Jobs = append(result.Jobs, JobMatch{Job: jobs[r.index], Score: r.score})
	}
	return result, nil
}

func (s *MatchService) matchProfiles(ctx context.Context, vec []float32) (*MatchResult, error) {
	var profiles []models.ProfessionalProfile
	err := s.db.WithContext(ctx).Preload("User", publicUserColumns).
		Order("average_rating DESC").Order("created_at DESC").
		Limit(candidatePool).Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	order := rank(len(profiles), func(i int) []float32 { return profiles[i].Embedding }, vec)
	result := &MatchResult{Type: MatchProfiles, Professionals: make([]ProfileMatch, 0, len(order))}
	for _, r := range order {
		result.Professionals = append(result.Professionals, ProfileMatch{Profile: profiles[r.index], Score: r.score})
	}
	return result, nil
}

type ranked struct {
	index int
	score *float64
}

// rank orders n candidates by cosine similarity to query, keeping the
// input order for ties and for candidates without a usable vector.
func rank(n int, vector func(int) []float32, query []float32) []ranked {
	var scored, unscored []ranked
	for i := 0; i < n; i++ {
		if sim, ok := cosine(vector(i), query); ok {
			sim := sim
			scored = append(scored, ranked{index: i, score: &sim})
		} else {
			unscored = append(unscored, ranked{index: i})
		}
	}
	sort.SliceStable(scored, func(a, b int) bool { return *scored[a].score > *scored[b].score })

	out := append(scored, unscored...)
	if len(out) > matchLimit {
		out = out[:matchLimit]
	}
	return out
}

// cosine returns the cosine similarity of a and b; ok is false when the
// vectors differ in length or either is zero.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
