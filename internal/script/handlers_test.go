package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/deckforge/cardscript-engine-go/internal/board"
)

// fixedTarget builds a selector function that always answers with the
// given card.
func fixedTarget(card *board.Card) func(context.Context, TargetRequest) <-chan TargetResult {
	return func(context.Context, TargetRequest) <-chan TargetResult {
		ch := make(chan TargetResult, 1)
		ch <- TargetResult{Targets: []*board.Card{card}}
		return ch
	}
}

func TestHandlerMoveContToBoard(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")
	deck := board.NewPile("deck")
	c1 := board.NewCard("C1", "unit")
	c2 := board.NewCard("C2", "unit")
	c1.MoveToPile(deck, -1)
	c2.MoveToPile(deck, -1)

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskMoveCardContToBoard,
			WithInt(ParamPileIndex, 0),
			WithPile(ParamSrcContainer, deck),
			WithPosition(ParamBoardPosition, board.Position{X: 100, Y: 200})),
	})

	require.Equal(t, 1, deck.Len())
	assert.Equal(t, c2, deck.Card(0), "C1 removed from deck front")
	assert.True(t, c1.OnBoard())
	assert.True(t, c1.InPlay())
	assert.Equal(t, board.Position{X: 100, Y: 200}, c1.Position())
}

func TestHandlerMoveToContainerIndexConventions(t *testing.T) {
	cases := []struct {
		name      string
		destIndex int
		wantPos   int
	}{
		{"append", -1, 3},
		{"front", 0, 0},
		{"middle", 2, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			hand := board.NewPile("hand")
			for i := 0; i < 3; i++ {
				board.NewCard("filler", "unit").MoveToPile(hand, -1)
			}
			mover := board.NewCard("Mover", "unit")

			runChain(t, env, AutoSelector{}, mover, nil, []Descriptor{
				NewDescriptor(TaskMoveCardToContainer,
					WithPile(ParamContainer, hand),
					WithInt(ParamDestIndex, tc.destIndex)),
			})

			require.Equal(t, 4, hand.Len())
			assert.Equal(t, mover, hand.Card(tc.wantPos))
		})
	}
}

func TestHandlerMoveToContainerDefaultsToAppend(t *testing.T) {
	env := newTestEnv()
	hand := board.NewPile("hand")
	board.NewCard("filler", "unit").MoveToPile(hand, -1)
	mover := board.NewCard("Mover", "unit")

	runChain(t, env, AutoSelector{}, mover, nil, []Descriptor{
		NewDescriptor(TaskMoveCardToContainer, WithPile(ParamContainer, hand)),
	})

	assert.Equal(t, mover, hand.Card(1))
}

func TestHandlerMoveContToContMovesBetweenPiles(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")
	deck := board.NewPile("deck")
	discard := board.NewPile("discard")
	c1 := board.NewCard("C1", "unit")
	c2 := board.NewCard("C2", "unit")
	c1.MoveToPile(deck, -1)
	c2.MoveToPile(deck, -1)
	board.NewCard("old", "unit").MoveToPile(discard, -1)

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskMoveCardContToCont,
			WithInt(ParamPileIndex, 1),
			WithPile(ParamSrcContainer, deck),
			WithPile(ParamDestContainer, discard),
			WithInt(ParamDestIndex, 0)),
	})

	assert.Equal(t, 1, deck.Len())
	require.Equal(t, 2, discard.Len())
	assert.Equal(t, c2, discard.Card(0))
}

func TestHandlerMoveContToContIndexOutOfRange(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")
	deck := board.NewPile("deck")
	discard := board.NewPile("discard")
	board.NewCard("C1", "unit").MoveToPile(deck, -1)

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskMoveCardContToCont,
			WithInt(ParamPileIndex, 5),
			WithPile(ParamSrcContainer, deck),
			WithPile(ParamDestContainer, discard)),
	})

	assert.Equal(t, 1, deck.Len(), "absent card at index means no-op")
	assert.Equal(t, 0, discard.Len())
}

func TestHandlerModTokensAddAndSet(t *testing.T) {
	env := newTestEnv()
	card := board.NewCard("Scout", "unit")
	card.Tokens().Set("charge", 2)

	// Default adds the modification to the existing counter.
	runChain(t, env, AutoSelector{}, card, nil, []Descriptor{
		NewDescriptor(TaskModTokens,
			WithString(ParamTokenName, "charge"),
			WithInt(ParamModification, 3)),
	})
	assert.Equal(t, 5, card.Tokens().Count("charge"))

	// set_to_mod overwrites instead.
	runChain(t, env, AutoSelector{}, card, nil, []Descriptor{
		NewDescriptor(TaskModTokens,
			WithString(ParamTokenName, "charge"),
			WithInt(ParamModification, 1),
			WithBool(ParamSetToMod, true)),
	})
	assert.Equal(t, 1, card.Tokens().Count("charge"))
}

func TestHandlerSpawnCard(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskSpawnCard,
			WithString(ParamCardTemplate, "drone"),
			WithPosition(ParamBoardPosition, board.Position{X: 30, Y: 40})),
	})

	require.Equal(t, 1, env.Board.Len())
	spawned := env.Board.Cards()[0]
	assert.Equal(t, "Drone", spawned.Name)
	assert.True(t, spawned.InPlay())
	assert.Equal(t, board.Position{X: 30, Y: 40}, spawned.Position())
}

func TestHandlerSpawnCardUnknownTemplate(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskSpawnCard,
			WithString(ParamCardTemplate, "no_such_template"),
			WithPosition(ParamBoardPosition, board.Position{})),
	})

	assert.Equal(t, 0, env.Board.Len(), "unknown template spawns nothing")
}

func TestHandlerShuffleContainer(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Caster", "unit")
	deck := board.NewPile("deck")
	ids := make(map[string]bool)
	for i := 0; i < 25; i++ {
		card := board.NewCard("card", "unit")
		card.MoveToPile(deck, -1)
		ids[card.ID] = true
	}

	runChain(t, env, AutoSelector{}, owner, nil, []Descriptor{
		NewDescriptor(TaskShuffleContainer, WithPile(ParamContainer, deck)),
	})

	require.Equal(t, 25, deck.Len())
	for _, card := range deck.Cards() {
		assert.True(t, ids[card.ID], "shuffle preserves the card multiset")
	}
}

func TestHandlerAttachAndHost(t *testing.T) {
	env := newTestEnv()
	owner := board.NewCard("Upgrade", "augment")
	subject := board.NewCard("Carrier", "unit")

	selector := SelectorFunc(fixedTarget(subject))
	runChain(t, env, selector, owner, nil, []Descriptor{
		NewDescriptor(TaskAttachToCard, WithString(ParamSubject, SubjectTarget)),
	})
	assert.Equal(t, subject, owner.Host(), "attach_to_card: owner becomes attachment of subject")

	owner.AttachToHost(nil)

	runChain(t, env, selector, owner, nil, []Descriptor{
		NewDescriptor(TaskHostCard, WithString(ParamSubject, SubjectTarget)),
	})
	assert.Equal(t, owner, subject.Host(), "host_card: subject becomes attachment of owner")
}

func TestHandlerFlipMissingParam(t *testing.T) {
	env := newTestEnv()
	card := board.NewCard("Scout", "unit")
	card.SetFaceUp(false)

	runChain(t, env, AutoSelector{}, card, nil, []Descriptor{
		NewDescriptor(TaskFlipCard),
	})

	assert.False(t, card.FaceUp(), "missing set_faceup must not mutate")
}
