package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/deckforge/cardscript-engine-go/internal/board"
)

func TestTaskContextTypedAccessors(t *testing.T) {
	pile := board.NewPile("deck")
	ref := board.NewCard("Ref", "unit")
	desc := NewDescriptor(TaskMoveCardToContainer,
		WithString("label", "mill"),
		WithInt(ParamDestIndex, 2),
		WithBool(ParamSetFaceup, true),
		WithPosition(ParamBoardPosition, board.Position{X: 1, Y: 2}),
		WithPile(ParamContainer, pile),
		WithCard("extra_card", ref),
		WithCards("extra_cards", []*board.Card{ref}),
	)
	tc := NewTaskContext(desc, nil, nil, nil)

	s, ok := tc.GetString("label")
	assert.True(t, ok)
	assert.Equal(t, "mill", s)

	i, ok := tc.GetInt(ParamDestIndex)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	b, ok := tc.GetBool(ParamSetFaceup)
	assert.True(t, ok)
	assert.True(t, b)

	p, ok := tc.GetPosition(ParamBoardPosition)
	assert.True(t, ok)
	assert.Equal(t, board.Position{X: 1, Y: 2}, p)

	pl, ok := tc.GetPile(ParamContainer)
	assert.True(t, ok)
	assert.Equal(t, pile, pl)

	c, ok := tc.GetCard("extra_card")
	assert.True(t, ok)
	assert.Equal(t, ref, c)

	cards, ok := tc.GetCards("extra_cards")
	assert.True(t, ok)
	require.Len(t, cards, 1)
}

func TestTaskContextAbsentKeysReturnDefaults(t *testing.T) {
	tc := NewTaskContext(NewDescriptor(TaskRotateCard), nil, nil, nil)

	if _, ok := tc.GetInt(ParamDegrees); ok {
		t.Fatalf("expected absent int key to report !ok")
	}
	if _, ok := tc.GetString(ParamTokenName); ok {
		t.Fatalf("expected absent string key to report !ok")
	}
	if _, ok := tc.GetPile(ParamContainer); ok {
		t.Fatalf("expected absent pile key to report !ok")
	}
	assert.Nil(t, tc.Get("anything"))
	assert.Equal(t, -1, tc.GetIntDefault(ParamDestIndex, -1))
	assert.False(t, tc.GetBoolDefault(ParamSetToMod, false))
}

func TestTaskContextWrongTypeReturnsDefault(t *testing.T) {
	tc := NewTaskContext(NewDescriptor(TaskRotateCard, WithString(ParamDegrees, "ninety")), nil, nil, nil)

	if _, ok := tc.GetInt(ParamDegrees); ok {
		t.Fatalf("expected mistyped key to report !ok")
	}
}

func TestTaskContextOwnerSubjectResolvesSynchronously(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	tc := NewTaskContext(NewDescriptor(TaskRotateCard, WithInt(ParamDegrees, 90)), owner, nil, nil)
	tc.beginResolution(context.Background(), nil)

	assert.True(t, tc.Initialized())
	assert.True(t, tc.IsValid())
	assert.Equal(t, owner, tc.Subject())

	select {
	case <-tc.Ready():
	default:
		t.Fatalf("expected ready signal closed")
	}
}

func TestTaskContextNilOwnerIsInvalid(t *testing.T) {
	tc := NewTaskContext(NewDescriptor(TaskRotateCard, WithInt(ParamDegrees, 90)), nil, nil, nil)
	tc.beginResolution(context.Background(), nil)

	assert.True(t, tc.Initialized())
	assert.False(t, tc.IsValid())
	assert.Nil(t, tc.Subject())
}

func TestTaskContextMissingTaskNameInvalidButInitialized(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	tc := NewTaskContext(NewDescriptor(TaskNone), owner, nil, nil)
	tc.beginResolution(context.Background(), nil)

	assert.True(t, tc.Initialized())
	assert.False(t, tc.IsValid())
}

func TestTaskContextTargetResolution(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	target := board.NewCard("Victim", "unit")
	tc := NewTaskContext(NewDescriptor(TaskRotateCard,
		WithString(ParamSubject, SubjectTarget),
		WithInt(ParamDegrees, 90)), owner, nil, nil)

	tc.beginResolution(context.Background(), SelectorFunc(fixedTarget(target)))
	<-tc.Ready()

	assert.True(t, tc.IsValid())
	assert.Equal(t, target, tc.Subject())
	require.Len(t, tc.Targets(), 1)
}

func TestTaskContextTargetSelectorMissing(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	tc := NewTaskContext(NewDescriptor(TaskRotateCard,
		WithString(ParamSubject, SubjectTarget)), owner, nil, nil)

	// No collaborator wired: the context initializes invalid rather than
	// hanging the chain.
	tc.beginResolution(context.Background(), nil)

	assert.True(t, tc.Initialized())
	assert.False(t, tc.IsValid())
}

func TestTaskContextFinalizeIdempotent(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	target := board.NewCard("Victim", "unit")
	tc := NewTaskContext(NewDescriptor(TaskRotateCard,
		WithString(ParamSubject, SubjectTarget)), owner, nil, nil)
	tc.beginResolution(context.Background(), SelectorFunc(fixedTarget(target)))
	<-tc.Ready()

	tc.Finalize()
	assert.True(t, tc.Finalized())
	assert.Empty(t, tc.Targets(), "finalize releases held selection state")

	// Second call is a no-op.
	tc.Finalize()
	assert.True(t, tc.Finalized())
}

func TestTaskContextSignalData(t *testing.T) {
	owner := board.NewCard("Caster", "unit")
	tc := NewTaskContext(NewDescriptor(TaskRotateCard), owner, nil, map[string]any{
		"cause": "card_played",
	})

	assert.Equal(t, "card_played", tc.SignalData("cause"))
	assert.Nil(t, tc.SignalData("absent"))
}

func TestDescriptorKeysPreserveOrder(t *testing.T) {
	desc := NewDescriptor(TaskModTokens,
		WithString(ParamTokenName, "charge"),
		WithInt(ParamModification, 1),
		WithBool(ParamSetToMod, true),
	)

	assert.Equal(t, []string{ParamTokenName, ParamModification, ParamSetToMod}, desc.Keys())
}

func TestDescriptorValidity(t *testing.T) {
	assert.True(t, NewDescriptor(TaskRotateCard, WithInt(ParamDegrees, 1)).IsValid())
	assert.False(t, NewDescriptor(TaskMoveCardToContainer, WithPile(ParamContainer, nil)).IsValid())
	assert.False(t, NewDescriptor(TaskAttachToCard, WithCard("host", nil)).IsValid())
	assert.False(t, NewDescriptor(TaskAttachToCard, WithCards("hosts", []*board.Card{nil})).IsValid())
}
