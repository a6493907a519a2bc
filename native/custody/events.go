package custody

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"rooster/core/types"
)

const (
	EventTypeInitialized = "custody.initialized"
	EventTypeWithdrawn   = "custody.withdrawn"
	EventTypeDelegated   = "custody.delegated"
)

// InitializedEvent is emitted once a custody record has been created.
type InitializedEvent struct {
	Owner   solana.PublicKey
	Custody solana.PublicKey
	Bump    uint8
}

// WithdrawnEvent is emitted after the custodied asset left custody.
type WithdrawnEvent struct {
	Owner       solana.PublicKey
	Custody     solana.PublicKey
	Destination solana.PublicKey
	Mint        solana.PublicKey
}

// DelegatedEvent is emitted after a transfer delegate was approved.
type DelegatedEvent struct {
	Custody  solana.PublicKey
	Delegate solana.PublicKey
	Mint     solana.PublicKey
	Amount   uint64
}

func (InitializedEvent) EventType() string { return EventTypeInitialized }
func (WithdrawnEvent) EventType() string   { return EventTypeWithdrawn }
func (DelegatedEvent) EventType() string   { return EventTypeDelegated }

// Event renders the initialization as a generic event payload.
func (e InitializedEvent) Event() *types.Event {
	return types.NewEvent(EventTypeInitialized).
		With("owner", e.Owner.String()).
		With("custody", e.Custody.String()).
		With("bump", strconv.FormatUint(uint64(e.Bump), 10))
}

func (e WithdrawnEvent) Event() *types.Event {
	return types.NewEvent(EventTypeWithdrawn).
		With("owner", e.Owner.String()).
		With("custody", e.Custody.String()).
		With("destination", e.Destination.String()).
		With("mint", e.Mint.String())
}

func (e DelegatedEvent) Event() *types.Event {
	return types.NewEvent(EventTypeDelegated).
		With("custody", e.Custody.String()).
		With("delegate", e.Delegate.String()).
		With("mint", e.Mint.String()).
		With("amount", strconv.FormatUint(e.Amount, 10))
}
