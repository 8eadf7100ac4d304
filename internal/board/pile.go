package board

import "math/rand"

// Pile is an ordered holder of cards (deck, hand, discard). Index 0 is the
// front of the pile.
type Pile struct {
	Name  string
	cards []*Card
}

// NewPile creates an empty pile with the given name.
func NewPile(name string) *Pile {
	return &Pile{
		Name:  name,
		cards: make([]*Card, 0, 16),
	}
}

// Card returns the card at the given index, or nil if out of range.
func (p *Pile) Card(index int) *Card {
	if index < 0 || index >= len(p.cards) {
		return nil
	}
	return p.cards[index]
}

// Len returns the number of cards in the pile.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the pile's card order, front first.
func (p *Pile) Cards() []*Card {
	cpy := make([]*Card, len(p.cards))
	copy(cpy, p.cards)
	return cpy
}

// Shuffle randomizes the pile's card order using the provided source.
// The card multiset is unchanged.
func (p *Pile) Shuffle(rng *rand.Rand) {
	if rng == nil || len(p.cards) < 2 {
		return
	}
	rng.Shuffle(len(p.cards), func(i, j int) {
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	})
}

// insertCard inserts the card at index: -1 appends after the current last
// element, 0 makes it the new front, n places it at position n. Indexes
// past the end append. Callers go through Card.MoveToPile so the card's
// holder reference stays consistent.
func (p *Pile) insertCard(card *Card, index int) {
	if card == nil {
		return
	}
	if index < 0 || index >= len(p.cards) {
		p.cards = append(p.cards, card)
		return
	}
	p.cards = append(p.cards, nil)
	copy(p.cards[index+1:], p.cards[index:])
	p.cards[index] = card
}

// removeCard removes the card from the pile if present.
func (p *Pile) removeCard(card *Card) {
	for i, c := range p.cards {
		if c == card {
			p.cards = append(p.cards[:i], p.cards[i+1:]...)
			return
		}
	}
}
