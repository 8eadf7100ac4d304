package board

import (
	"github.com/google/uuid"
	"github.com/deckforge/cardscript-engine-go/internal/board/tokens"
)

// Position is a point on the board plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Card represents a single card on the table. A card is held by at most one
// pile or by the board at any time; the move operations keep those
// back-references consistent.
//
// Cards are not safe for concurrent mutation. The script core is
// single-threaded per chain, and hosts running independent chains must not
// point them at the same entities.
type Card struct {
	ID       string
	Name     string
	CardType string

	rotation int
	faceUp   bool
	position Position
	inPlay   bool
	tokens   *tokens.Tokens

	host        *Card
	attachments []*Card

	pile  *Pile
	board *Board
}

// NewCard creates a card with a fresh ID. New cards start face-up at rest,
// held by nothing.
func NewCard(name, cardType string) *Card {
	return &Card{
		ID:       uuid.NewString(),
		Name:     name,
		CardType: cardType,
		faceUp:   true,
		tokens:   tokens.NewTokens(),
	}
}

// Rotation returns the card's rotation in degrees.
func (c *Card) Rotation() int { return c.rotation }

// SetRotation sets the card's rotation in degrees.
func (c *Card) SetRotation(degrees int) { c.rotation = degrees }

// FaceUp returns whether the card is face-up.
func (c *Card) FaceUp() bool { return c.faceUp }

// SetFaceUp turns the card face-up or face-down.
func (c *Card) SetFaceUp(faceUp bool) { c.faceUp = faceUp }

// Position returns the card's board position. Meaningful only while the
// card is on the board.
func (c *Card) Position() Position { return c.position }

// InPlay returns whether the card is currently in play on the board.
func (c *Card) InPlay() bool { return c.inPlay }

// Tokens returns the card's token counters.
func (c *Card) Tokens() *tokens.Tokens { return c.tokens }

// Host returns the card this card is attached to, or nil.
func (c *Card) Host() *Card { return c.host }

// Attachments returns the cards attached to this card.
func (c *Card) Attachments() []*Card {
	cpy := make([]*Card, len(c.attachments))
	copy(cpy, c.attachments)
	return cpy
}

// Pile returns the pile currently holding the card, or nil.
func (c *Card) Pile() *Pile { return c.pile }

// OnBoard returns whether the card is held by the board zone.
func (c *Card) OnBoard() bool { return c.board != nil }

// MoveToPile removes the card from its current holder and inserts it into
// the pile at the given index (-1 appends, 0 becomes the new front, n
// inserts at position n). Moving into a pile takes the card out of play.
func (c *Card) MoveToPile(pile *Pile, index int) {
	if pile == nil {
		return
	}
	c.detach()
	c.inPlay = false
	pile.insertCard(c, index)
	c.pile = pile
}

// MoveToBoard removes the card from its current holder and places it on the
// board at the given position, marking it in play. Attached cards follow
// their host.
func (c *Card) MoveToBoard(b *Board, pos Position) {
	if b == nil {
		return
	}
	c.detach()
	c.position = pos
	c.inPlay = true
	b.place(c)
	c.board = b

	for _, attachment := range c.attachments {
		attachment.position = pos
	}
}

// AttachToHost makes this card an attachment of host. Attaching to a new
// host first releases the previous one; attaching to nil just releases.
// A card never hosts itself.
func (c *Card) AttachToHost(host *Card) {
	if host == c {
		return
	}
	if c.host != nil {
		c.host.removeAttachment(c)
		c.host = nil
	}
	if host == nil {
		return
	}
	c.host = host
	host.attachments = append(host.attachments, c)
	if host.OnBoard() {
		c.position = host.position
	}
}

// detach removes the card from whichever holder currently has it.
func (c *Card) detach() {
	if c.pile != nil {
		c.pile.removeCard(c)
		c.pile = nil
	}
	if c.board != nil {
		c.board.remove(c)
		c.board = nil
	}
}

func (c *Card) removeAttachment(attachment *Card) {
	for i, a := range c.attachments {
		if a == attachment {
			c.attachments = append(c.attachments[:i], c.attachments[i+1:]...)
			return
		}
	}
}
