package engine

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

// Refund releases the custodied gross amount of a deposit whose
// exchange leg failed, by pushing it through the plain-redemption
// path back to the external chain. The sole recovery mechanism for
// the pending-refund state. Admin and custodian-admin only.
func (e *Engine) Refund(
	caller ethcommon.Address,
	txId ethcommon.Hash,
	destScript string,
	scriptType agreement.ScriptType,
) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.mayRefund(caller) {
		return fmt.Errorf("%w: refund requires the admin or custodian-admin role", ErrUnauthorized)
	}
	if !common.IsValidDestScript(destScript, string(scriptType), e.cfg.ChainParams) {
		return fmt.Errorf("%w: %q (%s)", ErrInvalidScript, destScript, scriptType)
	}

	deposit, ok, err := e.statedb.GetDeposit(txId)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDeposit, txId)
	}
	if deposit.Completed {
		return fmt.Errorf("%w: deposit %s", ErrAlreadyCompleted, txId)
	}

	asset, err := e.registry.Get(deposit.AssetId)
	if err != nil {
		return fmt.Errorf("%w: asset %d", ErrUnsupportedAsset, deposit.AssetId)
	}

	// Self-approval lets the redemption leg consume the engine's own
	// custodied balance.
	if err := asset.Approve(e.cfg.EngineAccount, e.cfg.EngineAccount, deposit.GrossAmount); err != nil {
		return err
	}

	net, idx, err := e.redeemCustodied(
		deposit.Recipient,
		deposit.ReferralId,
		deposit.AssetId,
		asset,
		deposit.GrossAmount,
		destScript,
		scriptType,
		0,
		false,
	)
	if err != nil {
		return err
	}

	if err := e.statedb.SetDepositCompleted(txId); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"txId": txId.String(),
		"idx":  idx,
		"net":  net,
	}).Info("deposit refunded")

	e.notifier.refundProcessed(&agreement.RefundProcessedEvent{
		TxId:            txId,
		RedemptionIndex: idx,
		AssetId:         deposit.AssetId,
		NetAmount:       net,
	})
	return nil
}
