package engine

import (
	"fmt"
	"math/big"

	logger "github.com/sirupsen/logrus"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
	"github.com/TEENet-io/wrap-go/feesplit"
	"github.com/TEENet-io/wrap-go/state"
)

// Unwrap burns a wrapped balance and appends a redemption request for
// release on the external chain. Unrestricted, value-bearing.
//
// An empty path redeems amount of assetId directly. A non-empty path
// first swaps inputAmount of path[0] into assetId; a swap failure
// here aborts the whole call, no custody transfer has been finalized
// yet. Returns the net amount recorded on the redemption log.
func (e *Engine) Unwrap(
	caller ethcommon.Address,
	referralId string,
	assetId agreement.AssetID,
	amount *big.Int,
	destScript string,
	scriptType agreement.ScriptType,
	appId uint64,
	inputAmount *big.Int,
	path []agreement.AssetID,
) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	if !common.IsValidDestScript(destScript, string(scriptType), e.cfg.ChainParams) {
		return nil, fmt.Errorf("%w: %q (%s)", ErrInvalidScript, destScript, scriptType)
	}

	asset, err := e.registry.Get(assetId)
	if err != nil {
		return nil, fmt.Errorf("%w: asset %d", ErrUnsupportedAsset, assetId)
	}

	swapped := len(path) > 0
	if swapped {
		amount, err = e.swapIntoCustody(caller, assetId, appId, inputAmount, path)
		if err != nil {
			return nil, err
		}
	} else {
		if amount == nil || amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValueMismatch)
		}
		if err := asset.Transfer(caller, e.cfg.EngineAccount, amount); err != nil {
			return nil, err
		}
	}

	net, idx, err := e.redeemCustodied(
		caller, referralId, assetId, asset, amount, destScript, scriptType, appId, swapped)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"idx":       idx,
		"requester": caller.Hex(),
		"net":       net,
		"swapped":   swapped,
	}).Info("redemption appended")

	return net, nil
}

// swapIntoCustody pulls inputAmount of the path's first asset from
// the caller and swaps it into the redeemable asset. The input is
// handed back on failure, leaving no partial effect.
func (e *Engine) swapIntoCustody(
	caller ethcommon.Address,
	assetId agreement.AssetID,
	appId uint64,
	inputAmount *big.Int,
	path []agreement.AssetID,
) (*big.Int, error) {
	if len(path) < 2 || path[len(path)-1] != assetId {
		return nil, fmt.Errorf("%w: path must end at %d", ErrInvalidPath, assetId)
	}
	if inputAmount == nil || inputAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: input amount must be positive", ErrValueMismatch)
	}

	inAsset, err := e.registry.Get(path[0])
	if err != nil {
		return nil, fmt.Errorf("%w: asset %d", ErrUnsupportedAsset, path[0])
	}

	if err := inAsset.Transfer(caller, e.cfg.EngineAccount, inputAmount); err != nil {
		return nil, err
	}

	out, err := e.executor.Swap(appId, path, inputAmount)
	if err != nil {
		if rerr := inAsset.Transfer(e.cfg.EngineAccount, caller, inputAmount); rerr != nil {
			return nil, fmt.Errorf("%w: %v (input return also failed: %v)", ErrSwapFailed, err, rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	return out, nil
}

// redeemCustodied burns the net-of-fee amount already sitting in
// custody, distributes the fee legs, and appends the redemption log
// entry. Shared between the unwrap and the refund paths.
func (e *Engine) redeemCustodied(
	requester ethcommon.Address,
	referralId string,
	assetId agreement.AssetID,
	asset agreement.WrappedAsset,
	amount *big.Int,
	destScript string,
	scriptType agreement.ScriptType,
	appId uint64,
	swapped bool,
) (*big.Int, uint64, error) {
	refBps, refAccount := e.referralOf(referralId)
	split, err := feesplit.Split(amount, e.fees.ProtocolBps, e.fees.OperatorBps, refBps)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOutOfRangeFee, err)
	}

	if err := asset.Redeem(e.cfg.EngineAccount, split.NetAmount); err != nil {
		return nil, 0, err
	}
	if err := e.distribute(split, assetId, asset, refAccount); err != nil {
		return nil, 0, err
	}

	idx, err := e.statedb.AppendRedemption(&state.Redemption{
		Processed:    false,
		BurnedAmount: split.NetAmount,
		AppId:        appId,
		Requester:    requester,
		DestScript:   destScript,
		ScriptType:   scriptType,
	})
	if err != nil {
		return nil, 0, err
	}

	e.notifier.redemptionCreated(&agreement.RedemptionCreatedEvent{
		Index:        idx,
		Requester:    requester,
		AssetId:      assetId,
		BurnedAmount: split.NetAmount,
		DestScript:   destScript,
		ScriptType:   scriptType,
		Swapped:      swapped,
	})

	return split.NetAmount, idx, nil
}
