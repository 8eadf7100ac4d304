package game

import (
	"fmt"
	"sort"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/board/tokens"
)

// CardView is the wire representation of one card.
type CardView struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	CardType string             `json:"card_type"`
	Rotation int                `json:"rotation"`
	FaceUp   bool               `json:"faceup"`
	Position board.Position     `json:"position"`
	InPlay   bool               `json:"in_play"`
	HostID   string             `json:"host_id,omitempty"`
	Tokens   []tokens.TokenView `json:"tokens,omitempty"`
}

// PileView is the wire representation of one pile.
type PileView struct {
	Name  string     `json:"name"`
	Cards []CardView `json:"cards"`
}

// TableView is a snapshot of a table for clients.
type TableView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Board    []CardView     `json:"board"`
	Piles    []PileView     `json:"piles"`
	Messages []TableMessage `json:"messages"`
}

// TableView builds a snapshot of the table's current state. Piles are listed
// in name order so snapshots are stable across calls.
func (e *TableEngine) TableView(tableID string) (TableView, error) {
	table, err := e.table(tableID)
	if err != nil {
		return TableView{}, err
	}

	table.mu.Lock()
	defer table.mu.Unlock()

	view := TableView{
		ID:       table.id,
		Name:     table.name,
		Board:    make([]CardView, 0, table.board.Len()),
		Piles:    make([]PileView, 0, len(table.piles)),
		Messages: append([]TableMessage(nil), table.messages...),
	}
	for _, card := range table.board.Cards() {
		view.Board = append(view.Board, buildCardView(card))
	}

	names := make([]string, 0, len(table.piles))
	for name := range table.piles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pile := table.piles[name]
		pileView := PileView{
			Name:  name,
			Cards: make([]CardView, 0, pile.Len()),
		}
		for _, card := range pile.Cards() {
			pileView.Cards = append(pileView.Cards, buildCardView(card))
		}
		view.Piles = append(view.Piles, pileView)
	}
	return view, nil
}

// CardByID returns the view of one card on the table.
func (e *TableEngine) CardByID(tableID, cardID string) (CardView, error) {
	table, err := e.table(tableID)
	if err != nil {
		return CardView{}, err
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	card := table.card(cardID)
	if card == nil {
		return CardView{}, fmt.Errorf("game: card %s not found on table %s", cardID, tableID)
	}
	return buildCardView(card), nil
}

func buildCardView(card *board.Card) CardView {
	view := CardView{
		ID:       card.ID,
		Name:     card.Name,
		CardType: card.CardType,
		Rotation: card.Rotation(),
		FaceUp:   card.FaceUp(),
		Position: card.Position(),
		InPlay:   card.InPlay(),
		Tokens:   card.Tokens().ToView(),
	}
	if host := card.Host(); host != nil {
		view.HostID = host.ID
	}
	return view
}
