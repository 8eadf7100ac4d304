package board

// Board is the positional play zone. Unlike piles, cards on the board carry
// a free position rather than an order.
type Board struct {
	cards []*Card
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		cards: make([]*Card, 0, 16),
	}
}

// Cards returns a copy of the cards currently on the board.
func (b *Board) Cards() []*Card {
	cpy := make([]*Card, len(b.cards))
	copy(cpy, b.cards)
	return cpy
}

// Len returns the number of cards on the board.
func (b *Board) Len() int {
	return len(b.cards)
}

func (b *Board) place(card *Card) {
	b.cards = append(b.cards, card)
}

func (b *Board) remove(card *Card) {
	for i, c := range b.cards {
		if c == card {
			b.cards = append(b.cards[:i], b.cards[i+1:]...)
			return
		}
	}
}

// CardTemplate describes a card blueprint that spawn effects instantiate.
type CardTemplate struct {
	Name     string         `json:"name" yaml:"name"`
	CardType string         `json:"card_type" yaml:"card_type"`
	FaceUp   bool           `json:"faceup" yaml:"faceup"`
	Tokens   map[string]int `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// Instantiate creates a fresh card from the template.
func (t CardTemplate) Instantiate() *Card {
	card := NewCard(t.Name, t.CardType)
	card.SetFaceUp(t.FaceUp)
	for name, count := range t.Tokens {
		card.Tokens().Set(name, count)
	}
	return card
}
