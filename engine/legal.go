package engine

// LegalPlays returns the set of cards hand may legally play given the
// table state. It fails with InvalidStateError when asked to play from
// an empty hand.
//
// Leading: the first trick must be opened with the leader's lowest
// club; afterwards any card may lead except hearts while unbroken,
// unless the hand is all hearts.
//
// Following: follow the led suit when possible. A void follower may
// play anything, except on the first trick, where penalty cards are
// barred — hearts only when the remainder is all hearts, the queen of
// spades never.
func LegalPlays(hand CardSet, t *TableState) (CardSet, error) {
	if hand.IsEmpty() {
		return 0, ErrInvalidState("no cards to play from an empty hand")
	}

	if t.LeadCard == EmptyCard {
		return legalLeads(hand, t)
	}
	return legalFollows(hand, t), nil
}

func legalLeads(hand CardSet, t *TableState) (CardSet, error) {
	if t.FirstTrick {
		club := hand.OfSuit(SuitClubs).Lowest()
		if club == EmptyCard {
			// A valid deal never puts a clubless player on the
			// opening lead.
			return 0, ErrInvalidState("first-trick leader holds no clubs")
		}
		var lead CardSet
		lead.Add(club)
		return lead, nil
	}

	if !t.HeartsBroken {
		if nonHearts := hand &^ AllHearts(); !nonHearts.IsEmpty() {
			return nonHearts, nil
		}
	}
	return hand, nil
}

func legalFollows(hand CardSet, t *TableState) CardSet {
	if same := hand.OfSuit(t.LeadSuit()); !same.IsEmpty() {
		return same
	}

	if t.FirstTrick {
		// No penalty cards on the first trick. If only hearts remain
		// they become playable, but never the queen of spades.
		if clean := hand &^ AllHearts() &^ queenMask(); !clean.IsEmpty() {
			return clean
		}
		if noQueen := hand &^ queenMask(); !noQueen.IsEmpty() {
			return noQueen
		}
	}
	return hand
}

func queenMask() CardSet {
	var s CardSet
	s.Add(QueenOfSpades)
	return s
}
