package engine

import "math/bits"

// Suit constants — packed into the upper 4 bits of Card.
const (
	SuitClubs    uint8 = 0
	SuitSpades   uint8 = 1
	SuitDiamonds uint8 = 2
	SuitHearts   uint8 = 3
)

// Rank constants — packed into the lower 4 bits of Card. The deck uses
// only the seven ranks 2, 4, 6, 8, 10, Q, A.
const (
	RankTwo   uint8 = 0
	RankFour  uint8 = 1
	RankSix   uint8 = 2
	RankEight uint8 = 3
	RankTen   uint8 = 4
	RankQueen uint8 = 5
	RankAce   uint8 = 6
)

const (
	NumSuits   = 4
	NumRanks   = 7
	DeckSize   = 28 // NumSuits * NumRanks
	HandSize   = 13
	NumHeldOut = 2 // cards dealt to neither player

	NumPlayers     = 2
	PlayerAgent    = uint8(0)
	PlayerOpponent = uint8(1)

	// QueenPoints is the penalty for capturing the queen of spades.
	// Each heart is worth one point.
	QueenPoints = 13
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Index returns the card's dense index in [0, DeckSize).
func (c Card) Index() uint8 { return c.Suit()*NumRanks + c.Rank() }

// CardFromIndex is the inverse of Index.
func CardFromIndex(idx uint8) Card {
	return NewCard(idx/NumRanks, idx%NumRanks)
}

// Value returns the face value used for trick comparison
// (2, 4, 6, 8, 10 for the number cards, 12 for the queen, 14 for the ace).
func (c Card) Value() int {
	return int(c.Rank()+1) * 2
}

// QueenOfSpades carries the big penalty.
const QueenOfSpades = Card(SuitSpades<<4 | RankQueen)

// TwoOfClubs nominally opens the game.
const TwoOfClubs = Card(SuitClubs<<4 | RankTwo)

// IsPenalty returns true for hearts and the queen of spades.
func (c Card) IsPenalty() bool {
	return c.Suit() == SuitHearts || c == QueenOfSpades
}

// Points returns the penalty points charged to whoever captures the card.
func (c Card) Points() int {
	switch {
	case c == QueenOfSpades:
		return QueenPoints
	case c.Suit() == SuitHearts:
		return 1
	default:
		return 0
	}
}

var rankStrings = [NumRanks]string{"2", "4", "6", "8", "10", "Q", "A"}
var suitStrings = [NumSuits]string{"c", "s", "d", "h"}

// String renders the card as rank then suit letter, e.g. "Qs", "10h".
func (c Card) String() string {
	if c == EmptyCard {
		return "--"
	}
	return rankStrings[c.Rank()] + suitStrings[c.Suit()]
}

// ---------------------------------------------------------------------------
// CardSet — a hand or any other set of cards as a 28-bit set.
// ---------------------------------------------------------------------------

// CardSet is a bitset over the 28-card deck, one bit per Card.Index.
type CardSet uint32

// FullDeck returns the set of all 28 cards.
func FullDeck() CardSet { return CardSet(1<<DeckSize) - 1 }

// suitMask selects all cards of one suit.
func suitMask(suit uint8) CardSet {
	return CardSet((1<<NumRanks)-1) << (suit * NumRanks)
}

// AllHearts is the set of all heart cards.
func AllHearts() CardSet { return suitMask(SuitHearts) }

// Has reports whether the set contains c.
func (s CardSet) Has(c Card) bool { return s&(1<<c.Index()) != 0 }

// Add inserts c into the set.
func (s *CardSet) Add(c Card) { *s |= 1 << c.Index() }

// Remove deletes c from the set.
func (s *CardSet) Remove(c Card) { *s &^= 1 << c.Index() }

// Count returns the number of cards in the set.
func (s CardSet) Count() int { return bits.OnesCount32(uint32(s)) }

// IsEmpty reports whether the set contains no cards.
func (s CardSet) IsEmpty() bool { return s == 0 }

// OfSuit returns the subset of cards of the given suit.
func (s CardSet) OfSuit(suit uint8) CardSet { return s & suitMask(suit) }

// Lowest returns the lowest-index card in the set, or EmptyCard if empty.
// Index order is suit-major, so within a suit it is also value order.
func (s CardSet) Lowest() Card {
	if s == 0 {
		return EmptyCard
	}
	return CardFromIndex(uint8(bits.TrailingZeros32(uint32(s))))
}

// Cards returns the cards in ascending index order.
func (s CardSet) Cards() []Card {
	out := make([]Card, 0, s.Count())
	for s != 0 {
		idx := uint8(bits.TrailingZeros32(uint32(s)))
		out = append(out, CardFromIndex(idx))
		s &^= 1 << idx
	}
	return out
}

// String renders the set as a space-separated card list.
func (s CardSet) String() string {
	if s == 0 {
		return "(empty)"
	}
	out := ""
	for i, c := range s.Cards() {
		if i > 0 {
			out += " "
		}
		out += c.String()
	}
	return out
}

// ---------------------------------------------------------------------------
// TableState — the fully observable portion of the game.
// ---------------------------------------------------------------------------

// TableState holds everything both players can see: the trick in
// progress, all cards played so far, and the penalty cards captured by
// each player.
type TableState struct {
	Leader       uint8 // player on lead for the current trick
	LeadCard     Card  // card on the table, EmptyCard when the trick is empty
	Captured     [NumPlayers]CardSet
	PlayedCards  CardSet
	HeartsBroken bool
	FirstTrick   bool
}

// LeadSuit returns the suit to follow; valid only when LeadCard is set.
func (t *TableState) LeadSuit() uint8 { return t.LeadCard.Suit() }

// ToAct returns the player who must play next.
func (t *TableState) ToAct() uint8 {
	if t.LeadCard == EmptyCard {
		return t.Leader
	}
	return 1 - t.Leader
}

// Score returns the penalty points player has captured so far.
func (t *TableState) Score(player uint8) int {
	return penaltyPoints(t.Captured[player])
}
