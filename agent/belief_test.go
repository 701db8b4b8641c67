package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djpetti/hearts-pomdp/engine"
)

// sixOfEach returns the six lowest cards of a suit (everything below
// the ace).
func sixOfEach(suit uint8) engine.CardSet {
	var s engine.CardSet
	for rank := engine.RankTwo; rank <= engine.RankQueen; rank++ {
		s.Add(engine.NewCard(suit, rank))
	}
	return s
}

// leadingHand is a 13-card hand whose lowest club is the two, so the
// agent is unambiguously on the opening lead and no deal-time club
// exclusion applies.
func leadingHand() engine.CardSet {
	return setOf(engine.TwoOfClubs) |
		sixOfEach(engine.SuitSpades) | sixOfEach(engine.SuitDiamonds)
}

func TestNewBeliefUniformPartitions(t *testing.T) {
	g := engine.NewDeal(rand.New(rand.NewSource(11)))
	agentHand := g.Hands[engine.PlayerAgent]
	unseen := engine.FullDeck() &^ agentHand

	b, err := NewBelief(agentHand, g.Table.Leader, 50, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	particles := b.Particles()
	require.Len(t, particles, 50)
	assert.InDelta(t, 1.0, b.TotalWeight(), 1e-9)

	for _, p := range particles {
		opp := p.State.Hands[engine.PlayerOpponent]
		held := p.State.HeldOut
		assert.Equal(t, engine.HandSize, opp.Count())
		assert.Equal(t, engine.NumHeldOut, held.Count())
		assert.Equal(t, unseen, opp|held)
		assert.True(t, (opp & agentHand).IsEmpty())
		assert.Equal(t, agentHand, p.State.Hands[engine.PlayerAgent])
	}
}

func TestNewBeliefRejectsBadInput(t *testing.T) {
	_, err := NewBelief(setOf(engine.TwoOfClubs), engine.PlayerAgent, 10, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	_, err = NewBelief(leadingHand(), engine.PlayerAgent, 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestNewBeliefOpeningLeadExcludesLowerClubs(t *testing.T) {
	// The agent leads holding the four of clubs but not the two: the
	// opponent cannot hold the two of clubs either, or they would be
	// on lead. It must sit in the held-out pair of every particle.
	agentHand := setOf(card(engine.SuitClubs, engine.RankFour)) |
		sixOfEach(engine.SuitSpades) | sixOfEach(engine.SuitDiamonds)
	require.Equal(t, engine.HandSize, agentHand.Count())

	b, err := NewBelief(agentHand, engine.PlayerAgent, 100, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	for _, p := range b.Particles() {
		assert.False(t, p.State.Hands[engine.PlayerOpponent].Has(engine.TwoOfClubs))
		assert.True(t, p.State.HeldOut.Has(engine.TwoOfClubs))
	}
}

func TestApplyAgentPlayAdvancesAllParticles(t *testing.T) {
	agentHand := leadingHand()
	b, err := NewBelief(agentHand, engine.PlayerAgent, 20, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.NoError(t, b.ApplyAgentPlay(engine.TwoOfClubs))

	assert.False(t, b.AgentHand().Has(engine.TwoOfClubs))
	assert.Equal(t, engine.TwoOfClubs, b.Table().LeadCard)
	for _, p := range b.Particles() {
		assert.Equal(t, engine.TwoOfClubs, p.State.Table.LeadCard)
		assert.False(t, p.State.Hands[engine.PlayerAgent].Has(engine.TwoOfClubs))
	}
}

func TestUpdateOpponentPlayFiltersInconsistentHands(t *testing.T) {
	// The agent holds six clubs, so the only unseen club is the ace.
	// When the opponent discards a diamond on the club lead, every
	// hypothesis granting them the ace of clubs is inconsistent.
	agentHand := sixOfEach(engine.SuitClubs) |
		setOf(
			card(engine.SuitSpades, engine.RankTwo),
			card(engine.SuitSpades, engine.RankFour),
			card(engine.SuitSpades, engine.RankSix),
			card(engine.SuitDiamonds, engine.RankTwo),
			card(engine.SuitDiamonds, engine.RankFour),
			card(engine.SuitDiamonds, engine.RankSix),
			card(engine.SuitDiamonds, engine.RankEight),
		)
	require.Equal(t, engine.HandSize, agentHand.Count())

	b, err := NewBelief(agentHand, engine.PlayerAgent, 500, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.NoError(t, b.ApplyAgentPlay(engine.TwoOfClubs))

	discard := card(engine.SuitDiamonds, engine.RankTen)
	require.NoError(t, b.UpdateOpponentPlay(discard))

	aceClubs := card(engine.SuitClubs, engine.RankAce)
	for _, p := range b.Particles() {
		opp := p.State.Hands[engine.PlayerOpponent]
		assert.False(t, opp.Has(aceClubs), "club void was inferred")
		assert.False(t, opp.Has(discard), "played card left the hand")
	}
	assert.InDelta(t, 1.0, b.TotalWeight(), 1e-9)
}

func TestReinvigorateRestoresParticleCount(t *testing.T) {
	b, err := NewBelief(leadingHand(), engine.PlayerAgent, 400, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	// Collapse the filter to a handful of survivors under a hard
	// constraint, the way a sharp observation would.
	aceClubs := card(engine.SuitClubs, engine.RankAce)
	survivors := b.particles[:0]
	for _, p := range b.particles {
		if !p.State.Hands[engine.PlayerOpponent].Has(aceClubs) && len(survivors) < 5 {
			survivors = append(survivors, p)
		}
	}
	require.NotEmpty(t, survivors)
	b.particles = survivors
	b.excluded.Add(aceClubs)

	b.reinvigorate()
	b.normalize()

	assert.Len(t, b.Particles(), 400)
	assert.InDelta(t, 1.0, b.TotalWeight(), 1e-9)
	for _, p := range b.Particles() {
		opp := p.State.Hands[engine.PlayerOpponent]
		assert.False(t, opp.Has(aceClubs))
		assert.Equal(t, engine.HandSize, opp.Count())
		assert.Equal(t, engine.NumHeldOut, p.State.HeldOut.Count())
	}
}

func TestUpdateOpponentPlayCollapses(t *testing.T) {
	b, err := NewBelief(leadingHand(), engine.PlayerAgent, 30, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, b.ApplyAgentPlay(engine.TwoOfClubs))

	// "Observing" a card from the agent's own hand is inconsistent
	// with every particle.
	impossible := card(engine.SuitSpades, engine.RankTwo)
	err = b.UpdateOpponentPlay(impossible)
	var collapse BeliefCollapseError
	assert.ErrorAs(t, err, &collapse)
}

func TestUpdateOpponentPlayWrongTurn(t *testing.T) {
	b, err := NewBelief(leadingHand(), engine.PlayerAgent, 30, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	unseen := engine.FullDeck() &^ leadingHand()
	err = b.UpdateOpponentPlay(unseen.Lowest())
	assert.Error(t, err)
}

// endgameBeliefWith builds a late-game belief literal from explicit
// opponent-hand hypotheses over the given unseen pool.
func endgameBeliefWith(agentHand, pool engine.CardSet, hands []engine.CardSet) *Belief {
	mirror := engine.GameState{
		Hands: [engine.NumPlayers]engine.CardSet{
			engine.PlayerAgent:    agentHand,
			engine.PlayerOpponent: pool,
		},
	}
	mirror.Table.Leader = engine.PlayerAgent
	mirror.Table.LeadCard = engine.EmptyCard

	oppSize := hands[0].Count()
	particles := make([]Particle, 0, len(hands))
	for _, h := range hands {
		state := mirror
		state.Hands[engine.PlayerOpponent] = h
		state.HeldOut = pool &^ h
		particles = append(particles, Particle{State: state, Weight: 1 / float64(len(hands))})
	}
	return &Belief{
		particles: particles,
		target:    len(hands),
		mirror:    mirror,
		oppSize:   oppSize,
		rng:       rand.New(rand.NewSource(1)),
	}
}

func TestUpdateEliminatesHypothesizedSuitHolders(t *testing.T) {
	// Agent leads the ace of spades; the opponent answers with a
	// diamond. Every hypothesis granting them a spade demanded a
	// follow and must drop to zero weight.
	agent := setOf(card(engine.SuitSpades, engine.RankAce), card(engine.SuitHearts, engine.RankTwo))
	pool := setOf(
		engine.QueenOfSpades,
		card(engine.SuitDiamonds, engine.RankTwo),
		card(engine.SuitDiamonds, engine.RankFour),
		card(engine.SuitDiamonds, engine.RankSix),
	)

	var hands []engine.CardSet
	cards := pool.Cards()
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			hands = append(hands, setOf(cards[i], cards[j]))
		}
	}
	b := endgameBeliefWith(agent, pool, hands)

	require.NoError(t, b.ApplyAgentPlay(card(engine.SuitSpades, engine.RankAce)))
	require.NoError(t, b.UpdateOpponentPlay(card(engine.SuitDiamonds, engine.RankTwo)))

	require.NotEmpty(t, b.Particles())
	for _, p := range b.Particles() {
		opp := p.State.Hands[engine.PlayerOpponent]
		assert.True(t, opp.OfSuit(engine.SuitSpades).IsEmpty())
	}
	assert.InDelta(t, 1.0, b.TotalWeight(), 1e-9)
}

func TestSingletonHandCollapseIsNotAnError(t *testing.T) {
	// Late game: three candidate singleton hands; the observed play
	// identifies the hand exactly. Diversity collapsing to one
	// distinct hand is the correct posterior, not a failure.
	agent := setOf(card(engine.SuitSpades, engine.RankTwo))
	pool := setOf(
		card(engine.SuitSpades, engine.RankFour),
		card(engine.SuitDiamonds, engine.RankTwo),
		card(engine.SuitDiamonds, engine.RankFour),
	)

	hands := make([]engine.CardSet, 0, 200)
	candidates := pool.Cards()
	for i := 0; i < 200; i++ {
		hands = append(hands, setOf(candidates[i%len(candidates)]))
	}
	b := endgameBeliefWith(agent, pool, hands)

	require.NoError(t, b.ApplyAgentPlay(card(engine.SuitSpades, engine.RankTwo)))
	require.NoError(t, b.UpdateOpponentPlay(card(engine.SuitSpades, engine.RankFour)))

	assert.Equal(t, 1, b.DistinctHands())
	assert.InDelta(t, 1.0, b.TotalWeight(), 1e-9)
	for _, p := range b.Particles() {
		assert.True(t, p.State.Hands[engine.PlayerOpponent].IsEmpty())
	}
}

func TestSampleUsesCallerRNG(t *testing.T) {
	g := engine.NewDeal(rand.New(rand.NewSource(19)))
	b, err := NewBelief(g.Hands[engine.PlayerAgent], g.Table.Leader, 200, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	s1 := b.Sample(rand.New(rand.NewSource(42)))
	s2 := b.Sample(rand.New(rand.NewSource(42)))
	assert.Equal(t, s1, s2)
	assert.Greater(t, b.DistinctHands(), 1)
}
