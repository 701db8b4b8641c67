// Package agent implements the POMDP core of the hearts player: a
// generative game model over the engine rules, a particle-filter
// belief over the opponent's hidden hand, a POMCP online planner and
// the turn-cycle controller that ties them together.
package agent

import (
	"math/rand"

	"github.com/djpetti/hearts-pomdp/engine"
)

// Observation is everything the agent perceives between two of its own
// decisions: the opponent card that completed the agent's trick (if
// any), the opponent card leading the next trick (if any), and whether
// the game ended.
type Observation struct {
	Follow   engine.Card // opponent's reply to the agent's lead, EmptyCard if none
	Lead     engine.Card // opponent's lead of the next trick, EmptyCard if none
	Terminal bool
}

// Key packs the observation into a comparable tree-edge key.
func (o Observation) Key() uint32 {
	k := uint32(o.Follow)<<9 | uint32(o.Lead)<<1
	if o.Terminal {
		k |= 1
	}
	return k
}

// GenerativeModel provides the POMDP primitives consumed by the
// planner: a transition/observation sampler and the fixed
// uniform-random legal-move opponent policy. It is stateless; all
// randomness flows through the rng supplied per call, so simulations
// are reproducible under a fixed seed.
type GenerativeModel struct{}

// SampleOpponentPlay draws a card uniformly at random from the
// opponent's legal plays. This is the fixed opponent policy the
// planner's value estimates are calibrated to; do not sharpen it.
func (m *GenerativeModel) SampleOpponentPlay(g *engine.GameState, rng *rand.Rand) (engine.Card, error) {
	legal, err := engine.LegalPlays(g.Hands[engine.PlayerOpponent], &g.Table)
	if err != nil {
		return engine.EmptyCard, err
	}
	cards := legal.Cards()
	return cards[rng.Intn(len(cards))], nil
}

// Step advances g by one decision epoch: it applies the agent's card,
// then samples and applies opponent plays until the agent must act
// again or the game ends. The returned reward is the negated penalty
// total of any trick the agent captured during the epoch; capturing
// nothing costs nothing. Step mutates g in place.
func (m *GenerativeModel) Step(g *engine.GameState, agentCard engine.Card, rng *rand.Rand) (Observation, float64, error) {
	obs := Observation{Follow: engine.EmptyCard, Lead: engine.EmptyCard}
	var reward float64

	res, err := g.ApplyPlay(engine.PlayerAgent, agentCard)
	if err != nil {
		return obs, 0, err
	}
	if res.Complete && res.Winner == engine.PlayerAgent {
		reward -= float64(res.Points)
	}

	// The opponent plays at most twice per epoch: a follow that
	// completes the agent's trick, and a lead when they captured it.
	for !g.IsTerminal() && g.ToAct() == engine.PlayerOpponent {
		c, err := m.SampleOpponentPlay(g, rng)
		if err != nil {
			return obs, 0, err
		}
		following := g.Table.LeadCard != engine.EmptyCard
		res, err := g.ApplyObserved(engine.PlayerOpponent, c)
		if err != nil {
			return obs, 0, err
		}
		if following {
			obs.Follow = c
		} else {
			obs.Lead = c
		}
		if res.Complete && res.Winner == engine.PlayerAgent {
			reward -= float64(res.Points)
		}
	}

	obs.Terminal = g.IsTerminal()
	return obs, reward, nil
}
