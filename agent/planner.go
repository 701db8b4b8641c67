package agent

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/djpetti/hearts-pomdp/engine"
)

// PlannerConfig holds the tunables of a single planning call. Zero
// values are replaced by the defaults below.
type PlannerConfig struct {
	// Simulations bounds the number of Monte-Carlo simulations per
	// decision, split across workers.
	Simulations int
	// PlanTime is an optional wall-clock deadline; zero means the
	// budget is simulation-count only.
	PlanTime time.Duration
	// Exploration is the UCB1 exploration constant.
	Exploration float64
	// Discount is applied per decision epoch; 1 is valid for this
	// finite-horizon game.
	Discount float64
	// MaxDepth cuts off tree descent, in decision epochs.
	MaxDepth int
	// Workers is the number of root-parallel search workers, each
	// with an independent rng and private tree.
	Workers int
	// Seed makes the search reproducible.
	Seed int64
}

const (
	defaultSimulations = 4096
	defaultExploration = 40.0
	defaultDiscount    = 1.0
	defaultWorkers     = 1
)

func (c PlannerConfig) withDefaults() PlannerConfig {
	if c.Simulations <= 0 {
		c.Simulations = defaultSimulations
	}
	if c.Exploration <= 0 {
		c.Exploration = defaultExploration
	}
	if c.Discount <= 0 {
		c.Discount = defaultDiscount
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = engine.HandSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	return c
}

// Planner chooses the agent's next card with a POMCP-style search:
// every simulation roots at a hidden state sampled from the belief,
// descends a tree keyed by the action/observation history since the
// decision point, expands one node, and rolls out to the end of the
// game under the model's uniform-random policies.
type Planner struct {
	cfg   PlannerConfig
	model *GenerativeModel
}

// NewPlanner builds a planner over the generative model.
func NewPlanner(cfg PlannerConfig, model *GenerativeModel) *Planner {
	return &Planner{cfg: cfg.withDefaults(), model: model}
}

// actionStats accumulates the running value estimate of one root or
// tree action.
type actionStats struct {
	visits int
	total  float64
}

func (s *actionStats) mean() float64 { return s.total / float64(s.visits) }

type edge struct {
	action engine.Card
	obs    uint32
}

// node is one belief node of the (per-worker) search tree. Trees are
// private to a worker and discarded after the decision, so no locking
// is needed; workers are merged at the root afterwards.
type node struct {
	visits   int
	actions  map[engine.Card]*actionStats
	children map[edge]*node
}

func newNode() *node {
	return &node{
		actions:  make(map[engine.Card]*actionStats),
		children: make(map[edge]*node),
	}
}

func (n *node) child(e edge) *node {
	c, ok := n.children[e]
	if !ok {
		c = newNode()
		n.children[e] = c
	}
	return c
}

// Search returns the best card to play from the current belief, under
// the configured budget. The belief is treated as an immutable
// snapshot: it is only sampled, with rngs owned by the workers.
//
// Fails with InvalidStateError when the root has no legal action and
// with PlanningTimeoutError when the deadline expires before any
// simulation completes.
func (p *Planner) Search(b *Belief) (engine.Card, error) {
	table := b.Table()
	rootLegal, err := engine.LegalPlays(b.AgentHand(), &table)
	if err != nil {
		return engine.EmptyCard, err
	}

	var deadline time.Time
	if p.cfg.PlanTime > 0 {
		deadline = time.Now().Add(p.cfg.PlanTime)
	}

	workers := p.cfg.Workers
	roots := make([]*node, workers)
	completed := make([]int, workers)

	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		sims := p.cfg.Simulations / workers
		if w == 0 {
			sims += p.cfg.Simulations % workers
		}
		eg.Go(func() error {
			// Distinct per-worker seeds keep the Monte-Carlo draws
			// independent and the merged estimate unbiased.
			rng := rand.New(rand.NewSource(p.cfg.Seed + int64(w)*1_000_003))
			root := newNode()
			for i := 0; i < sims; i++ {
				if !deadline.IsZero() && !time.Now().Before(deadline) {
					break
				}
				state := b.Sample(rng)
				if _, err := p.simulate(&state, root, 0, rng); err != nil {
					return err
				}
				completed[w]++
			}
			roots[w] = root
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return engine.EmptyCard, err
	}

	total := 0
	for _, c := range completed {
		total += c
	}
	if total == 0 {
		return engine.EmptyCard, PlanningTimeoutError("budget expired before the first simulation")
	}

	return bestRootAction(rootLegal, roots), nil
}

// bestRootAction merges the root statistics of all workers and picks
// the action with the highest mean value; ties break by visit count,
// then lowest card, so results are reproducible.
func bestRootAction(legal engine.CardSet, roots []*node) engine.Card {
	best := engine.EmptyCard
	bestMean := math.Inf(-1)
	bestVisits := -1

	for _, c := range legal.Cards() {
		merged := actionStats{}
		for _, root := range roots {
			if st, ok := root.actions[c]; ok {
				merged.visits += st.visits
				merged.total += st.total
			}
		}
		if merged.visits == 0 {
			continue
		}
		mean := merged.mean()
		if mean > bestMean || (mean == bestMean && merged.visits > bestVisits) {
			best = c
			bestMean = mean
			bestVisits = merged.visits
		}
	}

	if best == engine.EmptyCard {
		// Simulations completed but every stat landed in another
		// worker's untried set; fall back deterministically.
		best = legal.Lowest()
	}
	return best
}

// simulate runs one POMCP simulation from state through nd. The first
// visit to a node expands it and estimates its value with a rollout;
// later visits select by UCB1 and recurse. Returns the discounted
// return observed from this node.
func (p *Planner) simulate(state *engine.GameState, nd *node, depth int, rng *rand.Rand) (float64, error) {
	if state.IsTerminal() || depth >= p.cfg.MaxDepth {
		return 0, nil
	}

	if nd.visits == 0 {
		nd.visits++
		return p.rollout(state, rng)
	}

	legal, err := engine.LegalPlays(state.Hands[engine.PlayerAgent], &state.Table)
	if err != nil {
		return 0, err
	}

	action := p.selectUCB(nd, legal)
	obs, reward, err := p.model.Step(state, action, rng)
	if err != nil {
		return 0, err
	}

	var future float64
	if !obs.Terminal {
		future, err = p.simulate(state, nd.child(edge{action, obs.Key()}), depth+1, rng)
		if err != nil {
			return 0, err
		}
	}

	q := reward + p.cfg.Discount*future

	st := nd.actions[action]
	if st == nil {
		st = &actionStats{}
		nd.actions[action] = st
	}
	st.visits++
	st.total += q
	nd.visits++
	return q, nil
}

// selectUCB picks the next action to try: the lowest untried legal
// card first, then the UCB1 argmax. Iteration is over the sorted legal
// set, never the stats map, to keep selection deterministic.
func (p *Planner) selectUCB(nd *node, legal engine.CardSet) engine.Card {
	best := engine.EmptyCard
	bestScore := math.Inf(-1)
	logN := math.Log(float64(nd.visits))

	for _, c := range legal.Cards() {
		st, ok := nd.actions[c]
		if !ok || st.visits == 0 {
			return c
		}
		score := st.mean() + p.cfg.Exploration*math.Sqrt(logN/float64(st.visits))
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// rollout plays state to the end of the game with uniform-random legal
// moves on both sides, returning the discounted return for the agent.
func (p *Planner) rollout(state *engine.GameState, rng *rand.Rand) (float64, error) {
	var value float64
	discount := 1.0

	for !state.IsTerminal() {
		legal, err := engine.LegalPlays(state.Hands[engine.PlayerAgent], &state.Table)
		if err != nil {
			return 0, err
		}
		cards := legal.Cards()
		action := cards[rng.Intn(len(cards))]

		_, reward, err := p.model.Step(state, action, rng)
		if err != nil {
			return 0, err
		}
		value += discount * reward
		discount *= p.cfg.Discount
	}
	return value, nil
}
