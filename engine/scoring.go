package engine

// penaltyPoints sums the penalty points in a card set.
func penaltyPoints(s CardSet) int {
	points := s.OfSuit(SuitHearts).Count()
	if s.Has(QueenOfSpades) {
		points += QueenPoints
	}
	return points
}

// PenaltyPoints sums the penalty points in a card set.
func PenaltyPoints(s CardSet) int { return penaltyPoints(s) }

// RoundScores returns the end-of-round score per player from the
// captured piles. The base score is the penalty points a player
// captured, so lower is better. Shooting the moon: when one player
// captured every penalty card taken this round (at least one) and the
// other captured none, the shooter scores zero and the opponent is
// charged the shooter's heart count plus the queen penalty.
func RoundScores(captured [NumPlayers]CardSet) [NumPlayers]int {
	var scores [NumPlayers]int
	for p := uint8(0); p < NumPlayers; p++ {
		scores[p] = penaltyPoints(captured[p])
	}

	for p := uint8(0); p < NumPlayers; p++ {
		opp := 1 - p
		if scores[p] > 0 && scores[opp] == 0 {
			hearts := captured[p].OfSuit(SuitHearts).Count()
			scores[p] = 0
			scores[opp] = hearts + QueenPoints
			break
		}
	}
	return scores
}

// FinalScores returns the end-of-round score per player. It errors if
// the game has not ended yet.
func (g *GameState) FinalScores() ([NumPlayers]int, error) {
	if !g.IsTerminal() {
		return [NumPlayers]int{}, ErrInvalidState("final scores requested before game end")
	}
	return RoundScores(g.Table.Captured), nil
}
