// Builds cross-chain settlement instructions. The engine constructs
// the instruction here and hands it to the configured
// agreement.SettlementDispatcher endpoint; everything after the
// hand-off is the relay network's business.

package dispatcher

import (
	"errors"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/feesplit"
)

var ErrAmountInvalid = errors.New("dispatch amount must be positive")

// DefaultWindow is the fixed validity window of an instruction.
const DefaultWindow = 30 * time.Minute

type Builder struct {
	RelayAdmin ethcommon.Address // depositor identity of every instruction
	Window     time.Duration

	now func() time.Time // test hook
}

func NewBuilder(relayAdmin ethcommon.Address, window time.Duration) *Builder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Builder{
		RelayAdmin: relayAdmin,
		Window:     window,
		now:        time.Now,
	}
}

// Build constructs a settlement instruction:
// depositor = relay admin, recipient = end user, output amount =
// input amount scaled down by the bridge fee, deadline = now + window.
func (b *Builder) Build(
	recipient ethcommon.Address,
	inputAsset agreement.AssetID,
	outputAsset string,
	inputAmount *big.Int,
	bridgeFeeBps uint32,
	destLedger agreement.LedgerID,
) (*agreement.SettlementInstruction, error) {
	if inputAmount == nil || inputAmount.Sign() <= 0 {
		return nil, ErrAmountInvalid
	}

	outputAmount, err := feesplit.ScaleDown(inputAmount, bridgeFeeBps)
	if err != nil {
		return nil, err
	}

	return &agreement.SettlementInstruction{
		Depositor:    b.RelayAdmin,
		Recipient:    recipient,
		InputAsset:   inputAsset,
		OutputAsset:  outputAsset,
		InputAmount:  new(big.Int).Set(inputAmount),
		OutputAmount: outputAmount,
		DestLedger:   destLedger,
		Deadline:     b.now().Add(b.Window).Unix(),
	}, nil
}
