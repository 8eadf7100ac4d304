package script

import (
	"github.com/deckforge/cardscript-engine-go/internal/board"
)

// TaskKind identifies one kind of scripted effect.
type TaskKind string

const (
	TaskRotateCard          TaskKind = "rotate_card"
	TaskFlipCard            TaskKind = "flip_card"
	TaskMoveCardToContainer TaskKind = "move_card_to_container"
	TaskMoveCardToBoard     TaskKind = "move_card_to_board"
	TaskMoveCardContToCont  TaskKind = "move_card_cont_to_cont"
	TaskMoveCardContToBoard TaskKind = "move_card_cont_to_board"
	TaskModTokens           TaskKind = "mod_tokens"
	TaskSpawnCard           TaskKind = "spawn_card"
	TaskShuffleContainer    TaskKind = "shuffle_container"
	TaskAttachToCard        TaskKind = "attach_to_card"
	TaskHostCard            TaskKind = "host_card"
	TaskCustomScript        TaskKind = "custom_script"

	// TaskNone is the sentinel for a descriptor without a task, treated as
	// a no-op with a warning.
	TaskNone TaskKind = ""
)

// Parameter keys shared by the built-in tasks.
const (
	ParamDegrees       = "degrees"
	ParamSetFaceup     = "set_faceup"
	ParamContainer     = "container"
	ParamDestIndex     = "dest_index"
	ParamBoardPosition = "board_position"
	ParamPileIndex     = "pile_index"
	ParamSrcContainer  = "src_container"
	ParamDestContainer = "dest_container"
	ParamTokenName     = "token_name"
	ParamModification  = "modification"
	ParamSetToMod      = "set_to_mod"
	ParamCardTemplate  = "card_template"
	ParamScriptName    = "script_name"
	ParamSubject       = "subject"
)

// Subject values for the optional "subject" parameter.
const (
	// SubjectOwner resolves the subject to the acting card (the default).
	SubjectOwner = "owner"
	// SubjectTrigger resolves the subject to the card that fired the chain.
	SubjectTrigger = "trigger"
	// SubjectTarget requires interactive target selection before the task
	// can run.
	SubjectTarget = "target"
)

// Descriptor is an immutable named bundle of typed parameters describing
// one unit of scripted effect. Validity is computed at construction: a
// descriptor that references an entity which no longer exists is invalid
// and will be skipped by the dispatcher.
type Descriptor struct {
	taskName TaskKind
	order    []string
	params   map[string]any
	valid    bool
}

// Param sets one parameter while building a descriptor.
type Param func(*Descriptor)

// NewDescriptor builds a descriptor for the given task kind.
func NewDescriptor(taskName TaskKind, params ...Param) Descriptor {
	d := Descriptor{
		taskName: taskName,
		params:   make(map[string]any),
		valid:    true,
	}
	for _, apply := range params {
		apply(&d)
	}
	return d
}

func (d *Descriptor) set(key string, value any) {
	if _, exists := d.params[key]; !exists {
		d.order = append(d.order, key)
	}
	d.params[key] = value
}

// WithString sets a string parameter.
func WithString(key, value string) Param {
	return func(d *Descriptor) { d.set(key, value) }
}

// WithInt sets an integer parameter.
func WithInt(key string, value int) Param {
	return func(d *Descriptor) { d.set(key, value) }
}

// WithBool sets a boolean parameter.
func WithBool(key string, value bool) Param {
	return func(d *Descriptor) { d.set(key, value) }
}

// WithPosition sets a board position parameter.
func WithPosition(key string, value board.Position) Param {
	return func(d *Descriptor) { d.set(key, value) }
}

// WithCard sets a card reference parameter. A nil card marks the
// descriptor invalid: the referenced entity no longer exists.
func WithCard(key string, value *board.Card) Param {
	return func(d *Descriptor) {
		if value == nil {
			d.valid = false
		}
		d.set(key, value)
	}
}

// WithPile sets a pile reference parameter. A nil pile marks the
// descriptor invalid.
func WithPile(key string, value *board.Pile) Param {
	return func(d *Descriptor) {
		if value == nil {
			d.valid = false
		}
		d.set(key, value)
	}
}

// WithCards sets a card list parameter. Any nil entry marks the descriptor
// invalid.
func WithCards(key string, value []*board.Card) Param {
	return func(d *Descriptor) {
		for _, card := range value {
			if card == nil {
				d.valid = false
				break
			}
		}
		d.set(key, value)
	}
}

// TaskName returns the descriptor's task kind.
func (d Descriptor) TaskName() TaskKind { return d.taskName }

// IsValid reports whether every referenced entity existed at construction.
func (d Descriptor) IsValid() bool { return d.valid }

// Keys returns the parameter names in insertion order.
func (d Descriptor) Keys() []string {
	cpy := make([]string, len(d.order))
	copy(cpy, d.order)
	return cpy
}

// get returns the raw parameter value.
func (d Descriptor) get(key string) (any, bool) {
	v, ok := d.params[key]
	return v, ok
}
