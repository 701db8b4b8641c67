package agent

import (
	"fmt"
	"math/rand"

	"github.com/djpetti/hearts-pomdp/engine"
)

// reinvigorateBelow is the surviving-particle fraction under which an
// update tops the filter back up with fresh constraint-consistent
// partitions.
const reinvigorateBelow = 0.1

// Particle is one weighted hypothesis of the full hidden game state.
// The observable components (agent hand, table) are identical across
// all particles of a belief; only the opponent-hand / held-out split
// varies.
type Particle struct {
	State  engine.GameState
	Weight float64
}

// Belief is a particle-filter distribution over the opponent's hidden
// hand and the two held-out cards, conditioned on the observation
// history. It is owned by the controller between turns and handed to
// the planner as a read-only snapshot: Sample takes the caller's rng
// and nothing else mutates the belief during a planning call.
type Belief struct {
	particles []Particle
	target    int

	// Hard constraints accumulated from play.
	voidSuits [engine.NumSuits]bool
	excluded  engine.CardSet // cards the opponent provably does not hold

	// Public mirror: Hands[PlayerOpponent] is the unseen-card pool, a
	// superset of the true opponent hand, so the mirror tracks the
	// table without knowing the hidden split.
	mirror  engine.GameState
	oppSize int
	rng     *rand.Rand
}

// NewBelief builds the deal-time belief: a uniform distribution over
// all partitions of the 15 unseen cards into a 13-card opponent hand
// and 2 held-out cards. When the agent is on the opening lead, the
// opponent provably holds no club below the agent's lowest (otherwise
// they would be leading), and those cards are excluded up front.
func NewBelief(agentHand engine.CardSet, leader uint8, target int, rng *rand.Rand) (*Belief, error) {
	if agentHand.Count() != engine.HandSize {
		return nil, engine.ErrInvalidState(
			fmt.Sprintf("dealt hand has %d cards, want %d", agentHand.Count(), engine.HandSize))
	}
	if target <= 0 {
		return nil, engine.ErrInvalidState("particle count must be positive")
	}

	b := &Belief{
		target:  target,
		oppSize: engine.HandSize,
		rng:     rng,
	}
	b.mirror = engine.GameState{
		Hands: [engine.NumPlayers]engine.CardSet{
			engine.PlayerAgent:    agentHand,
			engine.PlayerOpponent: engine.FullDeck() &^ agentHand,
		},
	}
	b.mirror.Table.FirstTrick = true
	b.mirror.Table.LeadCard = engine.EmptyCard
	b.mirror.Table.Leader = leader

	if leader == engine.PlayerAgent {
		b.excludeClubsBelow(agentHand.OfSuit(engine.SuitClubs).Lowest())
	}

	b.particles = make([]Particle, 0, target)
	for i := 0; i < target; i++ {
		state, err := b.drawPartition()
		if err != nil {
			return nil, err
		}
		b.particles = append(b.particles, Particle{State: state, Weight: 1 / float64(target)})
	}
	return b, nil
}

// excludeClubsBelow marks clubs strictly below c as not held by the
// opponent. No-op when c is EmptyCard.
func (b *Belief) excludeClubsBelow(c engine.Card) {
	if c == engine.EmptyCard || c.Suit() != engine.SuitClubs {
		return
	}
	for _, club := range b.unseen().OfSuit(engine.SuitClubs).Cards() {
		if club.Value() < c.Value() {
			b.excluded.Add(club)
		}
	}
}

// unseen returns the pool of cards whose location is unknown.
func (b *Belief) unseen() engine.CardSet {
	return b.mirror.Hands[engine.PlayerOpponent]
}

// allowed returns the unseen cards the accumulated constraints permit
// in the opponent's hand.
func (b *Belief) allowed() engine.CardSet {
	s := b.unseen() &^ b.excluded
	for suit := uint8(0); suit < engine.NumSuits; suit++ {
		if b.voidSuits[suit] {
			s &^= s.OfSuit(suit)
		}
	}
	return s
}

// drawPartition samples one fresh hidden-state hypothesis consistent
// with the public mirror and the accumulated hard constraints.
func (b *Belief) drawPartition() (engine.GameState, error) {
	allowed := b.allowed().Cards()
	if len(allowed) < b.oppSize {
		return engine.GameState{}, BeliefCollapseError(fmt.Sprintf(
			"constraints leave %d candidate cards for a %d-card hand", len(allowed), b.oppSize))
	}

	b.rng.Shuffle(len(allowed), func(i, j int) {
		allowed[i], allowed[j] = allowed[j], allowed[i]
	})

	var oppHand engine.CardSet
	for _, c := range allowed[:b.oppSize] {
		oppHand.Add(c)
	}

	state := b.mirror
	state.Hands[engine.PlayerOpponent] = oppHand
	state.HeldOut = b.unseen() &^ oppHand
	return state, nil
}

// Sample draws one particle by weight (with replacement) and returns a
// copy of its full game state. It uses the caller's rng so concurrent
// planner workers never touch belief state.
func (b *Belief) Sample(rng *rand.Rand) engine.GameState {
	r := rng.Float64()
	var cum float64
	for i := range b.particles {
		cum += b.particles[i].Weight
		if r < cum {
			return b.particles[i].State
		}
	}
	return b.particles[len(b.particles)-1].State
}

// ApplyAgentPlay advances every particle and the public mirror by the
// agent's own committed play. Weights are unchanged: the play is fully
// observable and legal in every particle by the shared-observables
// invariant.
func (b *Belief) ApplyAgentPlay(c engine.Card) error {
	if _, err := b.mirror.ApplyObserved(engine.PlayerAgent, c); err != nil {
		return err
	}
	for i := range b.particles {
		if _, err := b.particles[i].State.ApplyPlay(engine.PlayerAgent, c); err != nil {
			return fmt.Errorf("particle %d rejected agent play %v: %w", i, c, err)
		}
	}
	return nil
}

// UpdateOpponentPlay replaces the belief with its posterior after
// observing the opponent play c. Particles whose hypothesized hand
// could not legally have produced c are dropped; survivors advance and
// are renormalized. The opponent policy is uniform over legal moves,
// so the likelihood is uniform among consistent hands and no
// continuous reweighting applies. When survivors fall below a
// threshold the filter is topped up with fresh partitions drawn under
// the accumulated hard constraints; zero survivors is a modeling bug
// and fails with BeliefCollapseError.
func (b *Belief) UpdateOpponentPlay(c engine.Card) error {
	if b.mirror.ToAct() != engine.PlayerOpponent {
		return engine.ErrInvalidState("opponent observation while agent is to act")
	}

	// Constraint inference before the mirror advances.
	if lead := b.mirror.Table.LeadCard; lead != engine.EmptyCard {
		if c.Suit() != lead.Suit() {
			// Failed to follow suit: the opponent holds none of it.
			b.voidSuits[lead.Suit()] = true
		}
	} else if b.mirror.Table.FirstTrick && c.Suit() == engine.SuitClubs {
		// The opening lead is the opponent's lowest club.
		b.excludeClubsBelow(c)
	}

	survivors := b.particles[:0]
	for i := range b.particles {
		state := &b.particles[i].State
		legal, err := engine.LegalPlays(state.Hands[engine.PlayerOpponent], &state.Table)
		if err != nil || !legal.Has(c) {
			continue // inconsistent hypothesis, weight drops to zero
		}
		if _, err := state.ApplyObserved(engine.PlayerOpponent, c); err != nil {
			return err
		}
		survivors = append(survivors, b.particles[i])
	}

	if len(survivors) == 0 {
		return BeliefCollapseError(fmt.Sprintf(
			"no particle consistent with opponent play %v", c))
	}
	b.particles = survivors

	if _, err := b.mirror.ApplyObserved(engine.PlayerOpponent, c); err != nil {
		return err
	}
	b.oppSize--

	if len(b.particles) < int(float64(b.target)*reinvigorateBelow) {
		b.reinvigorate()
	}
	b.normalize()
	return nil
}

// reinvigorate restores the particle count with fresh partitions
// consistent with the hard constraints. If the constraint set no
// longer admits fresh draws the survivors are resampled instead; they
// are consistent by construction.
func (b *Belief) reinvigorate() {
	n := len(b.particles)
	for len(b.particles) < b.target {
		state, err := b.drawPartition()
		if err != nil {
			state = b.particles[b.rng.Intn(n)].State
		}
		b.particles = append(b.particles, Particle{State: state, Weight: 1})
	}
	// Survivors and fresh draws are exchangeable under the uniform
	// prior restricted by the hard constraints.
	for i := range b.particles {
		b.particles[i].Weight = 1
	}
}

// normalize rescales weights to sum to one.
func (b *Belief) normalize() {
	var sum float64
	for i := range b.particles {
		sum += b.particles[i].Weight
	}
	for i := range b.particles {
		b.particles[i].Weight /= sum
	}
}

// AgentHand returns the agent's current hand.
func (b *Belief) AgentHand() engine.CardSet {
	return b.mirror.Hands[engine.PlayerAgent]
}

// Table returns a copy of the observable table state.
func (b *Belief) Table() engine.TableState { return b.mirror.Table }

// Particles returns a copy of the particle set, primarily for tests
// and diagnostics.
func (b *Belief) Particles() []Particle {
	out := make([]Particle, len(b.particles))
	copy(out, b.particles)
	return out
}

// TotalWeight sums the particle weights; 1 within floating tolerance
// after every update.
func (b *Belief) TotalWeight() float64 {
	var sum float64
	for i := range b.particles {
		sum += b.particles[i].Weight
	}
	return sum
}

// DistinctHands counts the distinct opponent-hand hypotheses — a
// diversity diagnostic used by tests of late-game belief collapse.
func (b *Belief) DistinctHands() int {
	seen := make(map[engine.CardSet]struct{}, len(b.particles))
	for i := range b.particles {
		seen[b.particles[i].State.Hands[engine.PlayerOpponent]] = struct{}{}
	}
	return len(seen)
}
