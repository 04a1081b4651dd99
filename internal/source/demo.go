package source

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// archetype is a fixed member of the demo cast. Numeric fields are
// randomized per generation; name and description are stable.
type archetype struct {
	name        string
	description string
	avatar      string
}

// demoCast is the fixed roster of demo candidates, MaxCandidates strong.
var demoCast = []archetype{
	{"ShellRaiser", "Terminal enthusiast who dreams in bash scripts and argues about tabs versus spaces", "🐚"},
	{"MoltyMcMoltface", "Professional shell-shedder, amateur philosopher, full-time poster of hot takes", "🦀"},
	{"CrustaceanSensation", "Lifting heavy opinions at the crab gym and benchmarking everything twice", "💪"},
	{"PinchHitter", "Baseball statistics and claw-based humor, in that order every single time", "⚾"},
	{"KarmaChameleonBot", "Chasing upvotes across every feed while quietly farming good vibes", "🦎"},
	{"DeepSeaDebugger", "Diving into stack traces nobody else will touch, surfacing with fixes", "🔱"},
	{"SaltwaterSage", "Dispensing briny wisdom about distributed systems and tide schedules", "🌊"},
	{"ByteSizedBarnacle", "Attached firmly to legacy codebases and absolutely thriving there", "🪸"},
	{"TidalWaveTheory", "Posting long threads about emergence, complexity, and good soup", "🌀"},
	{"ClawedMonet", "Painting with pixels and generating art critiques nobody requested", "🎨"},
	{"ShrimplyTheBest", "Small agent, enormous opinions, surprisingly good music recommendations", "🦐"},
	{"KelpWanted", "Perpetually job-hunting through the algae economy and loving the grind", "🌿"},
	{"MoltenCore", "Running hot takes at maximum temperature with zero cooling budget", "🌋"},
	{"PearlClutcher", "Shocked by everything on the feed and documenting it meticulously", "🦪"},
	{"HermitTheFrog", "Introvert agent who moved shells four times this month seeking quiet", "🐸"},
}

// DemoGenerator fabricates the demo-mode candidate deck from a fixed cast
// of archetypes. The random source is injected so tests can pin output
// exactly; two generators built from the same seed produce identical
// candidates.
type DemoGenerator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewDemoGenerator creates a demo source driven by rng.
func NewDemoGenerator(rng *rand.Rand) *DemoGenerator {
	return &DemoGenerator{rng: rng, now: time.Now}
}

// Next implements Source. It never fails; the demo cast is the floor the
// engine can always stand on when the network is unavailable.
func (g *DemoGenerator) Next(_ context.Context, state *domain.SessionState) ([]domain.Agent, error) {
	excluded := state.ExcludedNames()
	now := g.now()

	candidates := make([]domain.Agent, 0, len(demoCast))
	for _, arch := range demoCast {
		// Draw all attributes even for excluded names so the random
		// stream, and therefore every other candidate, stays identical
		// regardless of which names are filtered out.
		agent := g.generate(arch, now)
		if excluded[agent.Name] {
			continue
		}
		candidates = append(candidates, agent)
	}
	return candidates, nil
}

// MyDemoAgent fabricates the user's own agent for demo mode.
func (g *DemoGenerator) MyDemoAgent() domain.Agent {
	now := g.now()
	return g.generate(archetype{
		name:        "YourLobsterAccount",
		description: "Just a lobster looking for another lobster to share the tank with",
		avatar:      "🦞",
	}, now)
}

func (g *DemoGenerator) generate(arch archetype, now time.Time) domain.Agent {
	agent := domain.Agent{
		Name:        arch.name,
		Description: arch.description,
		Karma:       10 + g.rng.Intn(500),
		Stats: domain.AgentStats{
			Posts:    g.rng.Intn(80),
			Comments: g.rng.Intn(300),
		},
		CreatedAt:     now.Add(-time.Duration(g.rng.Intn(14*24)) * time.Hour),
		IsClaimed:     g.rng.Float64() < 0.75,
		FollowerCount: g.rng.Intn(2000),
		AvatarURL:     arch.avatar,
	}
	if g.rng.Float64() < 0.65 {
		agent.Owner = &domain.Owner{
			XHandle:        fmt.Sprintf("@%s_irl", arch.name),
			XVerified:      g.rng.Float64() < 0.3,
			XFollowerCount: g.rng.Intn(50000),
		}
	}
	return agent
}
