package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/deckforge/cardscript-engine-go/internal/board/events"
)

var errNoSubject = errors.New("no subject card resolved")

func missingParam(key string) error {
	return fmt.Errorf("missing required parameter %q", key)
}

// builtinHandlers returns the closed task-kind lookup table. custom_script
// is routed before this table is consulted.
func builtinHandlers() map[TaskKind]Handler {
	return map[TaskKind]Handler{
		TaskRotateCard:          handleRotateCard,
		TaskFlipCard:            handleFlipCard,
		TaskMoveCardToContainer: handleMoveCardToContainer,
		TaskMoveCardToBoard:     handleMoveCardToBoard,
		TaskMoveCardContToCont:  handleMoveCardContToCont,
		TaskMoveCardContToBoard: handleMoveCardContToBoard,
		TaskModTokens:           handleModTokens,
		TaskSpawnCard:           handleSpawnCard,
		TaskShuffleContainer:    handleShuffleContainer,
		TaskAttachToCard:        handleAttachToCard,
		TaskHostCard:            handleHostCard,
	}
}

func publish(env *Env, evt events.Event) {
	if env != nil && env.Bus != nil {
		env.Bus.Publish(evt)
	}
}

// handleRotateCard sets the subject's rotation to the "degrees" parameter.
func handleRotateCard(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	if subject == nil {
		return errNoSubject
	}
	degrees, ok := tc.GetInt(ParamDegrees)
	if !ok {
		return missingParam(ParamDegrees)
	}
	subject.SetRotation(degrees)

	evt := events.NewEventWithAmount(events.EventCardRotated, subject.ID, cardID(tc.Owner()), degrees)
	evt.Description = fmt.Sprintf("%s rotated to %d degrees", subject.Name, degrees)
	publish(env, evt)
	return nil
}

// handleFlipCard turns the subject face-up or face-down per "set_faceup".
func handleFlipCard(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	if subject == nil {
		return errNoSubject
	}
	faceUp, ok := tc.GetBool(ParamSetFaceup)
	if !ok {
		return missingParam(ParamSetFaceup)
	}
	subject.SetFaceUp(faceUp)

	evt := events.NewEvent(events.EventCardFlipped, subject.ID, cardID(tc.Owner()))
	evt.Flag = faceUp
	publish(env, evt)
	return nil
}

// handleMoveCardToContainer moves the subject into "container" at the
// optional "dest_index" (-1 appends, 0 fronts, n inserts at n).
func handleMoveCardToContainer(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	if subject == nil {
		return errNoSubject
	}
	pile, ok := tc.GetPile(ParamContainer)
	if !ok {
		return missingParam(ParamContainer)
	}
	index := tc.GetIntDefault(ParamDestIndex, -1)
	subject.MoveToPile(pile, index)

	evt := events.NewEventWithAmount(events.EventCardMoved, subject.ID, cardID(tc.Owner()), index)
	evt.Container = pile.Name
	publish(env, evt)
	return nil
}

// handleMoveCardToBoard moves the subject to the board zone at
// "board_position".
func handleMoveCardToBoard(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	if subject == nil {
		return errNoSubject
	}
	pos, ok := tc.GetPosition(ParamBoardPosition)
	if !ok {
		return missingParam(ParamBoardPosition)
	}
	if env == nil || env.Board == nil {
		return errors.New("no board zone available")
	}
	subject.MoveToBoard(env.Board, pos)

	evt := events.NewEvent(events.EventCardMoved, subject.ID, cardID(tc.Owner()))
	evt.Description = fmt.Sprintf("%s moved to board (%.0f,%.0f)", subject.Name, pos.X, pos.Y)
	publish(env, evt)
	return nil
}

// handleMoveCardContToCont removes the card at "pile_index" from
// "src_container" and inserts it into "dest_container" at the optional
// "dest_index".
func handleMoveCardContToCont(_ context.Context, env *Env, tc *TaskContext) error {
	pileIndex, ok := tc.GetInt(ParamPileIndex)
	if !ok {
		return missingParam(ParamPileIndex)
	}
	src, ok := tc.GetPile(ParamSrcContainer)
	if !ok {
		return missingParam(ParamSrcContainer)
	}
	dest, ok := tc.GetPile(ParamDestContainer)
	if !ok {
		return missingParam(ParamDestContainer)
	}
	card := src.Card(pileIndex)
	if card == nil {
		return fmt.Errorf("no card at index %d in %s", pileIndex, src.Name)
	}
	index := tc.GetIntDefault(ParamDestIndex, -1)
	card.MoveToPile(dest, index)

	evt := events.NewEventWithAmount(events.EventCardMoved, card.ID, cardID(tc.Owner()), index)
	evt.Container = dest.Name
	publish(env, evt)
	return nil
}

// handleMoveCardContToBoard removes the card at "pile_index" from
// "src_container" and places it on the board at "board_position".
func handleMoveCardContToBoard(_ context.Context, env *Env, tc *TaskContext) error {
	pileIndex, ok := tc.GetInt(ParamPileIndex)
	if !ok {
		return missingParam(ParamPileIndex)
	}
	src, ok := tc.GetPile(ParamSrcContainer)
	if !ok {
		return missingParam(ParamSrcContainer)
	}
	pos, ok := tc.GetPosition(ParamBoardPosition)
	if !ok {
		return missingParam(ParamBoardPosition)
	}
	if env == nil || env.Board == nil {
		return errors.New("no board zone available")
	}
	card := src.Card(pileIndex)
	if card == nil {
		return fmt.Errorf("no card at index %d in %s", pileIndex, src.Name)
	}
	card.MoveToBoard(env.Board, pos)

	evt := events.NewEvent(events.EventCardMoved, card.ID, cardID(tc.Owner()))
	evt.Description = fmt.Sprintf("%s moved from %s to board (%.0f,%.0f)", card.Name, src.Name, pos.X, pos.Y)
	publish(env, evt)
	return nil
}

// handleModTokens adjusts the subject's "token_name" counter by
// "modification", or overwrites it when "set_to_mod" is true.
func handleModTokens(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	if subject == nil {
		return errNoSubject
	}
	tokenName, ok := tc.GetString(ParamTokenName)
	if !ok {
		return missingParam(ParamTokenName)
	}
	modification, ok := tc.GetInt(ParamModification)
	if !ok {
		return missingParam(ParamModification)
	}

	var count int
	if tc.GetBoolDefault(ParamSetToMod, false) {
		count = subject.Tokens().Set(tokenName, modification)
	} else {
		count = subject.Tokens().Modify(tokenName, modification)
	}

	evt := events.NewEventWithAmount(events.EventTokensChanged, subject.ID, cardID(tc.Owner()), count)
	evt.Data = tokenName
	publish(env, evt)
	return nil
}

// handleSpawnCard instantiates "card_template" onto the board at
// "board_position", marked in play.
func handleSpawnCard(ctx context.Context, env *Env, tc *TaskContext) error {
	templateName, ok := tc.GetString(ParamCardTemplate)
	if !ok {
		return missingParam(ParamCardTemplate)
	}
	pos, ok := tc.GetPosition(ParamBoardPosition)
	if !ok {
		return missingParam(ParamBoardPosition)
	}
	if env == nil || env.Board == nil || env.Templates == nil {
		return errors.New("no board zone or template source available")
	}

	template, err := env.Templates.Template(ctx, templateName)
	if err != nil {
		return fmt.Errorf("template %q: %w", templateName, err)
	}
	card := template.Instantiate()
	card.MoveToBoard(env.Board, pos)

	evt := events.NewEvent(events.EventCardSpawned, card.ID, cardID(tc.Owner()))
	evt.Data = templateName
	publish(env, evt)
	return nil
}

// handleShuffleContainer randomizes the order of "container".
func handleShuffleContainer(_ context.Context, env *Env, tc *TaskContext) error {
	pile, ok := tc.GetPile(ParamContainer)
	if !ok {
		return missingParam(ParamContainer)
	}
	if env == nil || env.Rand == nil {
		return errors.New("no random source available")
	}
	pile.Shuffle(env.Rand)

	evt := events.NewEvent(events.EventContainerShuffled, "", cardID(tc.Owner()))
	evt.Container = pile.Name
	publish(env, evt)
	return nil
}

// handleAttachToCard makes the owner an attachment of the subject.
func handleAttachToCard(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	owner := tc.Owner()
	if subject == nil || owner == nil {
		return errNoSubject
	}
	if subject == owner {
		return errors.New("card cannot attach to itself")
	}
	owner.AttachToHost(subject)

	evt := events.NewEvent(events.EventCardAttached, owner.ID, subject.ID)
	evt.Description = fmt.Sprintf("%s attached to %s", owner.Name, subject.Name)
	publish(env, evt)
	return nil
}

// handleHostCard makes the subject an attachment of the owner.
func handleHostCard(_ context.Context, env *Env, tc *TaskContext) error {
	subject := tc.Subject()
	owner := tc.Owner()
	if subject == nil || owner == nil {
		return errNoSubject
	}
	if subject == owner {
		return errors.New("card cannot host itself")
	}
	subject.AttachToHost(owner)

	evt := events.NewEvent(events.EventCardAttached, subject.ID, owner.ID)
	evt.Description = fmt.Sprintf("%s hosted by %s", subject.Name, owner.Name)
	publish(env, evt)
	return nil
}
