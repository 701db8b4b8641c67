// Package engine implements the rules of a two-player, 28-card Hearts
// variant: ranks 2/4/6/8/10/Q/A in four suits, thirteen cards dealt to
// each player and two held out of play. It provides the pure rule
// bookkeeping — dealing, legal-play enumeration, trick resolution and
// scoring — consumed by the planning agent.
package engine

import (
	"fmt"
	"math/rand"
)

// GameState holds the complete, fully informed state of a game. It is
// a flat value type; copying with = yields an independent state. Only
// Hands[PlayerAgent] and Table are observable to the agent.
type GameState struct {
	Hands   [NumPlayers]CardSet
	HeldOut CardSet
	Table   TableState
}

// NewDeal shuffles the deck and deals a fresh game: thirteen cards to
// each player, two held out. The player holding the lower lowest club
// leads the first trick. At most two clubs can be held out, so at
// least one player always holds a club.
func NewDeal(rng *rand.Rand) GameState {
	var order [DeckSize]uint8
	for i := range order {
		order[i] = uint8(i)
	}
	rng.Shuffle(DeckSize, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	var g GameState
	for i, idx := range order {
		c := CardFromIndex(idx)
		switch {
		case i < HandSize:
			g.Hands[PlayerAgent].Add(c)
		case i < 2*HandSize:
			g.Hands[PlayerOpponent].Add(c)
		default:
			g.HeldOut.Add(c)
		}
	}

	g.Table.FirstTrick = true
	g.Table.LeadCard = EmptyCard
	g.Table.Leader = openingLeader(g.Hands[PlayerAgent], g.Hands[PlayerOpponent])
	return g
}

// openingLeader returns the player who leads the first trick: the one
// holding the lower lowest club.
func openingLeader(agent, opponent CardSet) uint8 {
	agentClub := agent.OfSuit(SuitClubs).Lowest()
	oppClub := opponent.OfSuit(SuitClubs).Lowest()
	switch {
	case agentClub == EmptyCard:
		return PlayerOpponent
	case oppClub == EmptyCard:
		return PlayerAgent
	case agentClub.Value() < oppClub.Value():
		return PlayerAgent
	default:
		return PlayerOpponent
	}
}

// ToAct returns the player who must play next.
func (g *GameState) ToAct() uint8 { return g.Table.ToAct() }

// IsTerminal returns true when both hands are empty and no trick is
// pending.
func (g *GameState) IsTerminal() bool {
	return g.Hands[PlayerAgent].IsEmpty() &&
		g.Hands[PlayerOpponent].IsEmpty() &&
		g.Table.LeadCard == EmptyCard
}

// TrickResult reports the outcome of a single play.
type TrickResult struct {
	Complete bool  // true when the play completed a trick
	Winner   uint8 // capturing player, valid when Complete
	Points   int   // penalty points in the captured trick
}

// ApplyPlay plays c for player after checking turn order and legality.
// On a trick-completing play it resolves the winner, moves both cards
// to the winner's captured set and puts the winner on lead.
func (g *GameState) ApplyPlay(player uint8, c Card) (TrickResult, error) {
	if g.IsTerminal() {
		return TrickResult{}, ErrGameOver
	}
	if g.ToAct() != player {
		return TrickResult{}, ErrOutOfTurn
	}
	legal, err := LegalPlays(g.Hands[player], &g.Table)
	if err != nil {
		return TrickResult{}, err
	}
	if !legal.Has(c) {
		return TrickResult{}, fmt.Errorf("illegal play %v from hand %v", c, g.Hands[player])
	}
	return g.ApplyObserved(player, c)
}

// ApplyObserved records a play without checking it against the acting
// player's hand. Drivers that cannot see a hand (the belief mirror,
// the controller's authoritative public state) use this to apply
// externally observed cards; trusted callers go through ApplyPlay.
func (g *GameState) ApplyObserved(player uint8, c Card) (TrickResult, error) {
	if g.ToAct() != player {
		return TrickResult{}, ErrOutOfTurn
	}

	g.Hands[player].Remove(c)
	g.Table.PlayedCards.Add(c)
	if c.Suit() == SuitHearts {
		g.Table.HeartsBroken = true
	}

	if g.Table.LeadCard == EmptyCard {
		g.Table.LeadCard = c
		return TrickResult{}, nil
	}

	// Second card: resolve the trick. Off-suit never wins.
	lead := g.Table.LeadCard
	winner := g.Table.Leader
	if c.Suit() == lead.Suit() && c.Value() > lead.Value() {
		winner = player
	}

	points := lead.Points() + c.Points()
	g.Table.Captured[winner].Add(lead)
	g.Table.Captured[winner].Add(c)
	g.Table.Leader = winner
	g.Table.LeadCard = EmptyCard
	g.Table.FirstTrick = false

	return TrickResult{Complete: true, Winner: winner, Points: points}, nil
}
