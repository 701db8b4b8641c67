package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djpetti/hearts-pomdp/engine"
)

func card(suit, rank uint8) engine.Card { return engine.NewCard(suit, rank) }

func setOf(cards ...engine.Card) engine.CardSet {
	var s engine.CardSet
	for _, c := range cards {
		s.Add(c)
	}
	return s
}

func TestObservationKeyDistinguishesFields(t *testing.T) {
	follow := Observation{Follow: card(engine.SuitDiamonds, engine.RankAce), Lead: engine.EmptyCard}
	lead := Observation{Follow: engine.EmptyCard, Lead: card(engine.SuitDiamonds, engine.RankAce)}
	terminal := follow
	terminal.Terminal = true

	assert.NotEqual(t, follow.Key(), lead.Key())
	assert.NotEqual(t, follow.Key(), terminal.Key())
	assert.Equal(t, follow.Key(), Observation{Follow: follow.Follow, Lead: engine.EmptyCard}.Key())
}

func TestStepAgentWinsPenaltyTrick(t *testing.T) {
	// Last trick of a game: the agent's ace of hearts beats the
	// opponent's forced follow, capturing two hearts.
	g := engine.GameState{
		Hands: [engine.NumPlayers]engine.CardSet{
			engine.PlayerAgent:    setOf(card(engine.SuitHearts, engine.RankAce)),
			engine.PlayerOpponent: setOf(card(engine.SuitHearts, engine.RankTwo)),
		},
	}
	g.Table.Leader = engine.PlayerAgent
	g.Table.LeadCard = engine.EmptyCard
	g.Table.HeartsBroken = true

	model := &GenerativeModel{}
	obs, reward, err := model.Step(&g, card(engine.SuitHearts, engine.RankAce), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, card(engine.SuitHearts, engine.RankTwo), obs.Follow)
	assert.Equal(t, engine.EmptyCard, obs.Lead)
	assert.True(t, obs.Terminal)
	assert.Equal(t, -2.0, reward)
	assert.True(t, g.IsTerminal())
}

func TestStepObservesFollowAndLead(t *testing.T) {
	// The opponent takes the agent's diamond lead with the ace and
	// then leads a spade, handing the turn back to the agent. No
	// penalty cards move, so the epoch is free.
	g := engine.GameState{
		Hands: [engine.NumPlayers]engine.CardSet{
			engine.PlayerAgent: setOf(
				card(engine.SuitDiamonds, engine.RankTwo),
				card(engine.SuitSpades, engine.RankTwo),
			),
			engine.PlayerOpponent: setOf(
				card(engine.SuitDiamonds, engine.RankAce),
				card(engine.SuitSpades, engine.RankFour),
			),
		},
	}
	g.Table.Leader = engine.PlayerAgent
	g.Table.LeadCard = engine.EmptyCard

	model := &GenerativeModel{}
	obs, reward, err := model.Step(&g, card(engine.SuitDiamonds, engine.RankTwo), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, card(engine.SuitDiamonds, engine.RankAce), obs.Follow)
	assert.Equal(t, card(engine.SuitSpades, engine.RankFour), obs.Lead)
	assert.False(t, obs.Terminal)
	assert.Equal(t, 0.0, reward)
	assert.Equal(t, engine.PlayerAgent, g.ToAct())
}

func TestStepDeterministicUnderSeed(t *testing.T) {
	run := func() (Observation, float64) {
		g := engine.NewDeal(rand.New(rand.NewSource(7)))
		if g.ToAct() != engine.PlayerAgent {
			// Advance past the opponent's forced opening lead so the
			// agent is to act.
			model := &GenerativeModel{}
			c, err := model.SampleOpponentPlay(&g, rand.New(rand.NewSource(3)))
			require.NoError(t, err)
			_, err = g.ApplyObserved(engine.PlayerOpponent, c)
			require.NoError(t, err)
		}
		legal, err := engine.LegalPlays(g.Hands[engine.PlayerAgent], &g.Table)
		require.NoError(t, err)

		model := &GenerativeModel{}
		obs, reward, err := model.Step(&g, legal.Lowest(), rand.New(rand.NewSource(99)))
		require.NoError(t, err)
		return obs, reward
	}

	obs1, r1 := run()
	obs2, r2 := run()
	assert.Equal(t, obs1, obs2)
	assert.Equal(t, r1, r2)
}

func TestStepRejectsIllegalCard(t *testing.T) {
	g := engine.NewDeal(rand.New(rand.NewSource(7)))
	model := &GenerativeModel{}

	// A card the agent does not hold is never legal.
	outside := engine.FullDeck() &^ g.Hands[engine.PlayerAgent]
	_, _, err := model.Step(&g, outside.Lowest(), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
