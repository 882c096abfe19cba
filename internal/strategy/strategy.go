// Package strategy holds multi-leg option strategy definitions.
//
// A Definition describes intent: target deltas per leg role, shared
// expiration and quantity. Variants live in a closed registry table so
// that adding a new strategy kind means adding one table entry, not a
// new type hierarchy.
package strategy

import (
	"errors"
	"fmt"

	"github.com/chriseid/OptionBot/internal/data"
)

// ErrInvalidStrategy is wrapped by every validation failure, allowing
// callers to detect the category without string matching.
var ErrInvalidStrategy = errors.New("invalid strategy")

// Kind tags a strategy variant.
type Kind string

const (
	KindIronCondor    Kind = "iron_condor"
	KindShortStrangle Kind = "short_strangle"
)

// Role identifies a leg within a strategy.
type Role string

const (
	RoleLongPut   Role = "longPut"
	RoleShortPut  Role = "shortPut"
	RoleShortCall Role = "shortCall"
	RoleLongCall  Role = "longCall"
)

// Action is the opening transaction side for a leg.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Opposite returns the reversing action, used when closing a position.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// Leg is one resolved position slot: role plus its target delta.
type Leg struct {
	Role        Role
	TargetDelta float64
	OptionType  data.OptionType
	Action      Action
}

// Definition is a stored strategy. Legs map roles to target deltas;
// puts carry negative deltas, calls positive ones.
type Definition struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Symbol     string           `json:"symbol"`
	Kind       Kind             `json:"strategy"`
	Expiration string           `json:"expiration"` // "0DTE" or an ISO date
	Legs       map[Role]float64 `json:"legs"`
	Quantity   int              `json:"quantity"`
	CreatedAt  string           `json:"createdAt"`
}

// kindSpec is one registry entry: the ordered leg roles a variant uses
// and its leg-level validation rule.
type kindSpec struct {
	roles    []Role
	validate func(legs map[Role]float64) error
}

var kinds = map[Kind]kindSpec{
	KindIronCondor: {
		roles:    []Role{RoleLongPut, RoleShortPut, RoleShortCall, RoleLongCall},
		validate: validateIronCondor,
	},
	KindShortStrangle: {
		roles:    []Role{RoleShortPut, RoleShortCall},
		validate: validateShortStrangle,
	},
}

// Kinds lists the registered strategy kinds.
func Kinds() []Kind {
	return []Kind{KindIronCondor, KindShortStrangle}
}

// Validate checks the definition against its variant's rules.
// Failures wrap ErrInvalidStrategy and carry a human-readable reason.
func (d *Definition) Validate() error {
	spec, ok := kinds[d.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown strategy kind %q", ErrInvalidStrategy, d.Kind)
	}
	if d.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidStrategy)
	}
	if d.Expiration == "" {
		return fmt.Errorf("%w: expiration is required", ErrInvalidStrategy)
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer, got %d", ErrInvalidStrategy, d.Quantity)
	}
	for _, role := range spec.roles {
		if _, ok := d.Legs[role]; !ok {
			return fmt.Errorf("%w: missing target delta for leg %s", ErrInvalidStrategy, role)
		}
	}
	return spec.validate(d.Legs)
}

// TradeLegs expands the definition into ordered legs, skipping roles
// without a target delta so that 2-4 leg combinations all work.
func (d *Definition) TradeLegs() []Leg {
	spec, ok := kinds[d.Kind]
	if !ok {
		return nil
	}
	var out []Leg
	for _, role := range spec.roles {
		delta, ok := d.Legs[role]
		if !ok {
			continue
		}
		out = append(out, Leg{
			Role:        role,
			TargetDelta: delta,
			OptionType:  role.OptionType(),
			Action:      role.Action(),
		})
	}
	return out
}

// OptionType reports whether the role trades puts or calls.
func (r Role) OptionType() data.OptionType {
	switch r {
	case RoleLongPut, RoleShortPut:
		return data.OptionPut
	default:
		return data.OptionCall
	}
}

// Action reports the opening transaction side for the role.
func (r Role) Action() Action {
	switch r {
	case RoleLongPut, RoleLongCall:
		return ActionBuy
	default:
		return ActionSell
	}
}

// validateIronCondor enforces longPut < shortPut < 0 < shortCall < longCall.
// Put deltas are negative and calls positive; the strict ordering keeps the
// wings outside the body on both sides.
func validateIronCondor(legs map[Role]float64) error {
	lp, sp := legs[RoleLongPut], legs[RoleShortPut]
	sc, lc := legs[RoleShortCall], legs[RoleLongCall]

	if !(lp < sp && sp < 0) {
		return fmt.Errorf("%w: put deltas must satisfy longPut < shortPut < 0 (got longPut=%.2f shortPut=%.2f)",
			ErrInvalidStrategy, lp, sp)
	}
	if !(0 < sc && sc < lc) {
		return fmt.Errorf("%w: call deltas must satisfy 0 < shortCall < longCall (got shortCall=%.2f longCall=%.2f)",
			ErrInvalidStrategy, sc, lc)
	}
	return nil
}

func validateShortStrangle(legs map[Role]float64) error {
	sp, sc := legs[RoleShortPut], legs[RoleShortCall]
	if !(sp < 0 && 0 < sc) {
		return fmt.Errorf("%w: strangle deltas must satisfy shortPut < 0 < shortCall (got shortPut=%.2f shortCall=%.2f)",
			ErrInvalidStrategy, sp, sc)
	}
	return nil
}
