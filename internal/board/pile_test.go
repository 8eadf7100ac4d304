package board

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestPileInsertConventions(t *testing.T) {
	pile := NewPile("deck")
	a := NewCard("A", "unit")
	b := NewCard("B", "unit")
	c := NewCard("C", "unit")
	d := NewCard("D", "unit")

	a.MoveToPile(pile, -1)
	b.MoveToPile(pile, -1)
	if pile.Card(0) != a || pile.Card(1) != b {
		t.Fatalf("expected append order [A B], got %v", pileNames(pile))
	}

	// 0 always becomes the new front.
	c.MoveToPile(pile, 0)
	if pile.Card(0) != c {
		t.Fatalf("expected C at front, got %v", pileNames(pile))
	}

	// n inserts exactly at position n.
	d.MoveToPile(pile, 1)
	want := []string{"C", "D", "A", "B"}
	got := pileNames(pile)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPileInsertPastEndAppends(t *testing.T) {
	pile := NewPile("deck")
	a := NewCard("A", "unit")
	b := NewCard("B", "unit")

	a.MoveToPile(pile, 99)
	b.MoveToPile(pile, 99)
	if pile.Card(1) != b {
		t.Fatalf("expected out-of-range index to append, got %v", pileNames(pile))
	}
}

func TestPileCardOutOfRange(t *testing.T) {
	pile := NewPile("deck")
	if pile.Card(0) != nil {
		t.Fatalf("expected nil for empty pile")
	}
	if pile.Card(-1) != nil {
		t.Fatalf("expected nil for negative index")
	}
}

func TestPileShuffleKeepsMultiset(t *testing.T) {
	pile := NewPile("deck")
	ids := make(map[string]bool)
	for i := 0; i < 20; i++ {
		card := NewCard("card", "unit")
		card.MoveToPile(pile, -1)
		ids[card.ID] = true
	}

	pile.Shuffle(rand.New(rand.NewSource(42)))

	if pile.Len() != 20 {
		t.Fatalf("expected 20 cards after shuffle, got %d", pile.Len())
	}
	for _, card := range pile.Cards() {
		if !ids[card.ID] {
			t.Fatalf("unexpected card %s after shuffle", card.ID)
		}
	}
}

func TestPileShuffleSeedsDiffer(t *testing.T) {
	shuffled := func(seed int64) []string {
		pile := NewPile("deck")
		for i := 0; i < 30; i++ {
			NewCard(fmt.Sprintf("card-%d", i), "unit").MoveToPile(pile, -1)
		}
		pile.Shuffle(rand.New(rand.NewSource(seed)))
		return pileNames(pile)
	}

	first := shuffled(1)
	second := shuffled(2)

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different seeds to produce different orders")
	}
}

func pileNames(p *Pile) []string {
	names := make([]string, 0, p.Len())
	for _, card := range p.Cards() {
		names = append(names, card.Name)
	}
	return names
}
