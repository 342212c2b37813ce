package blackjack

import "math/rand/v2"

// Card is one of the 52 playing cards. Suit never affects the score.
type Card struct {
	Rank string
	Suit string
}

var (
	cardRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	cardSuits = []string{"♠️", "♥️", "♦️", "♣️"}

	rankValues = map[string]int{
		"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
		"J": 10, "Q": 10, "K": 10, "A": 11,
	}
)

// String returns the display form of the card, e.g. "A♠️".
func (c Card) String() string {
	return c.Rank + c.Suit
}

// Value returns the blackjack point value of the card, counting an ace as
// 11. Unknown ranks score 0, which cannot happen for cards built here.
func (c Card) Value() int {
	return rankValues[c.Rank]
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// Draw picks one card uniformly at random with replacement. The shoe is
// infinite: no cards are removed and there is no reshuffle state.
func Draw() Card {
	return Card{
		Rank: cardRanks[rand.IntN(len(cardRanks))],
		Suit: cardSuits[rand.IntN(len(cardSuits))],
	}
}

// HandScore sums the hand counting every ace as 11, then downgrades aces
// to 1 one at a time while the total is over 21. The result may still
// exceed 21; deciding bust is the caller's job. The score depends only on
// the multiset of cards, not their order.
func HandScore(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for aces > 0 && total > 21 {
		total -= 10
		aces--
	}
	return total
}
