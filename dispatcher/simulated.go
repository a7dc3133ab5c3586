package dispatcher

import (
	"errors"

	"github.com/TEENet-io/wrap-go/agreement"
)

var ErrForcedDispatchFail = errors.New("forced dispatch failure")

// SimulatedDispatcher records every accepted instruction.
type SimulatedDispatcher struct {
	Instructions []*agreement.SettlementInstruction
	Fail         bool
}

func NewSimulatedDispatcher() *SimulatedDispatcher {
	return &SimulatedDispatcher{}
}

func (sd *SimulatedDispatcher) Dispatch(instr *agreement.SettlementInstruction) error {
	if sd.Fail {
		return ErrForcedDispatchFail
	}
	sd.Instructions = append(sd.Instructions, instr)
	return nil
}

// Last returns the most recently accepted instruction, nil if none.
func (sd *SimulatedDispatcher) Last() *agreement.SettlementInstruction {
	if len(sd.Instructions) == 0 {
		return nil
	}
	return sd.Instructions[len(sd.Instructions)-1]
}
