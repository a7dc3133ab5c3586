// The real exchange executor is an external collaborator reached
// through agreement.ExchangeExecutor. This package carries the
// simulated one used by tests and the simulated server mode.

package exchange

import (
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/assetregistry"
)

var (
	ErrPathTooShort = errors.New("swap path needs at least two hops")
	ErrForcedFail   = errors.New("forced swap failure")
)

// SimulatedExecutor swaps between registered simulated assets at a
// fixed rational rate. The input amount is pulled out of the holder
// account (redeemed) and the output amount is issued back to it, which
// is how a swap looks from the engine custody's point of view.
type SimulatedExecutor struct {
	Registry *assetregistry.Registry
	Holder   ethcommon.Address // engine custody account

	// output = input * RateNum / RateDen, defaults to 1:1
	RateNum int64
	RateDen int64

	Fail bool // fail every swap, for failure injection
}

func NewSimulatedExecutor(registry *assetregistry.Registry, holder ethcommon.Address) *SimulatedExecutor {
	return &SimulatedExecutor{
		Registry: registry,
		Holder:   holder,
		RateNum:  1,
		RateDen:  1,
	}
}

func (se *SimulatedExecutor) Swap(appId uint64, path []agreement.AssetID, amountIn *big.Int) (*big.Int, error) {
	if se.Fail {
		return nil, ErrForcedFail
	}
	if len(path) < 2 {
		return nil, ErrPathTooShort
	}

	inAsset, err := se.Registry.Get(path[0])
	if err != nil {
		return nil, fmt.Errorf("input asset %d: %w", path[0], err)
	}
	outAsset, err := se.Registry.Get(path[len(path)-1])
	if err != nil {
		return nil, fmt.Errorf("output asset %d: %w", path[len(path)-1], err)
	}

	amountOut := new(big.Int).Mul(amountIn, big.NewInt(se.RateNum))
	amountOut.Div(amountOut, big.NewInt(se.RateDen))
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("swap output rounds to zero: in=%v", amountIn)
	}

	if err := inAsset.Redeem(se.Holder, amountIn); err != nil {
		return nil, err
	}
	if err := outAsset.Issue(se.Holder, amountOut); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"appId": appId,
		"in":    amountIn,
		"out":   amountOut,
	}).Debug("simulated swap executed")
	return amountOut, nil
}
