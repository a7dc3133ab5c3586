package engine

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/feesplit"
	"github.com/TEENet-io/wrap-go/state"
)

// Wrap processes one proven deposit. Unrestricted caller: the proof
// itself is the authorization.
//
// Unseen → Verified → Issued → Completed, or, when the requested
// exchange fails, Issued with the gross amount parked in custody
// pending an admin refund. That swap failure is the only condition
// that does not abort the call.
func (e *Engine) Wrap(proof *agreement.DepositProof, path []agreement.AssetID) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	fields, err := e.gate.Verify(proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	newLogger := logger.WithField("txId", fields.TxId.String())

	// Exactly-once: one deposit per transaction identifier.
	ok, err := e.statedb.HasDeposit(fields.TxId)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: deposit %s", ErrAlreadyProcessed, fields.TxId)
	}

	asset, err := e.registry.Get(fields.AssetId)
	if err != nil {
		return fmt.Errorf("%w: asset %d", ErrUnsupportedAsset, fields.AssetId)
	}

	if fields.GrossAmount == nil || fields.GrossAmount.Sign() <= 0 {
		return fmt.Errorf("%w: gross amount must be positive", ErrValueMismatch)
	}

	refBps, _ := e.referralOf(fields.ReferralId)
	split, err := feesplit.Split(fields.GrossAmount, e.fees.ProtocolBps, e.fees.OperatorBps, refBps)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfRangeFee, err)
	}

	// All exchange-path checks happen before any external call. The
	// caller-supplied path is never substituted.
	var remoteAsset string
	if fields.AppId != 0 {
		if len(path) < 2 ||
			path[0] != fields.AssetId ||
			path[len(path)-1] != fields.OutputAsset {
			return fmt.Errorf("%w: path must run %d → %d", ErrInvalidPath, fields.AssetId, fields.OutputAsset)
		}
		if _, err := e.registry.Get(fields.OutputAsset); err != nil {
			return fmt.Errorf("%w: output asset %d", ErrUnsupportedAsset, fields.OutputAsset)
		}
		if fields.LedgerId != e.cfg.LocalLedger {
			remoteAsset, ok = e.destAssets[destKey{fields.OutputAsset, fields.LedgerId}]
			if !ok {
				return fmt.Errorf("%w: asset %d on ledger %d", ErrNoDestinationMap, fields.OutputAsset, fields.LedgerId)
			}
		}
	}

	deposit, err := state.CreateDepositFromFields(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValueMismatch, err)
	}
	if err := e.statedb.InsertDeposit(deposit); err != nil {
		return err
	}

	// Issue the full gross amount into the engine's own custody. A
	// failed issuance unwinds the admission: nothing was issued, so
	// the tx id must stay claimable by a later call.
	if err := asset.Issue(e.cfg.EngineAccount, fields.GrossAmount); err != nil {
		if derr := e.statedb.DeleteDeposit(fields.TxId); derr != nil {
			return fmt.Errorf("issuance failed: %v (admission unwind also failed: %v)", err, derr)
		}
		return err
	}
	newLogger.WithField("gross", fields.GrossAmount).Debug("deposit issued into custody")

	if fields.AppId == 0 {
		return e.completeDirect(fields, asset, split)
	}
	return e.completeWithExchange(fields, split, path, remoteAsset)
}

// completeDirect delivers a no-exchange deposit on the local ledger.
func (e *Engine) completeDirect(
	fields *agreement.DepositFields,
	asset agreement.WrappedAsset,
	split *feesplit.FeeSplit,
) error {
	_, refAccount := e.referralOf(fields.ReferralId)
	if err := e.distribute(split, fields.AssetId, asset, refAccount); err != nil {
		return err
	}
	if err := asset.Transfer(e.cfg.EngineAccount, fields.Recipient, split.NetAmount); err != nil {
		return err
	}
	if err := e.statedb.SetDepositCompleted(fields.TxId); err != nil {
		return err
	}

	e.notifier.depositCompleted(&agreement.DepositCompletedEvent{
		TxId:        fields.TxId,
		AssetId:     fields.AssetId,
		OutputAsset: fields.AssetId,
		GrossAmount: fields.GrossAmount,
		NetAmount:   split.NetAmount,
		Recipient:   fields.Recipient,
		LedgerId:    e.cfg.LocalLedger,
	})
	return nil
}

// completeWithExchange runs the requested swap on the post-fee net
// amount, then delivers locally or hands off to the settlement relay.
func (e *Engine) completeWithExchange(
	fields *agreement.DepositFields,
	split *feesplit.FeeSplit,
	path []agreement.AssetID,
	remoteAsset string,
) error {
	newLogger := logger.WithFields(logger.Fields{
		"txId":  fields.TxId.String(),
		"appId": fields.AppId,
	})

	out, err := e.executor.Swap(fields.AppId, path, split.NetAmount)
	if err != nil {
		// The sole recoverable condition: no fees distributed, the
		// custodied balance untouched, the deposit parked for the
		// refund path.
		newLogger.WithField("err", err).Warn("swap failed, deposit left pending refund")
		e.notifier.depositFailed(&agreement.DepositFailedEvent{
			TxId:        fields.TxId,
			AssetId:     fields.AssetId,
			GrossAmount: fields.GrossAmount,
			Reason:      err.Error(),
		})
		return nil
	}

	inAsset, err := e.registry.Get(fields.AssetId)
	if err != nil {
		return fmt.Errorf("%w: asset %d", ErrUnsupportedAsset, fields.AssetId)
	}
	outAsset, err := e.registry.Get(fields.OutputAsset)
	if err != nil {
		return fmt.Errorf("%w: output asset %d", ErrUnsupportedAsset, fields.OutputAsset)
	}

	_, refAccount := e.referralOf(fields.ReferralId)
	if err := e.distribute(split, fields.AssetId, inAsset, refAccount); err != nil {
		return err
	}

	dispatched := false
	if fields.LedgerId == e.cfg.LocalLedger {
		if err := outAsset.Transfer(e.cfg.EngineAccount, fields.Recipient, out); err != nil {
			return err
		}
	} else {
		instr, err := e.builder.Build(
			fields.Recipient,
			fields.OutputAsset,
			remoteAsset,
			out,
			fields.BridgeFeeBps,
			fields.LedgerId,
		)
		if err != nil {
			return err
		}
		if err := outAsset.Transfer(e.cfg.EngineAccount, e.cfg.BridgeAccount, out); err != nil {
			return err
		}
		if err := e.endpoint.Dispatch(instr); err != nil {
			return err
		}
		dispatched = true
		newLogger.WithFields(logger.Fields{
			"ledger": fields.LedgerId,
			"out":    instr.OutputAmount,
		}).Info("deposit handed to the settlement relay")
	}

	if err := e.statedb.SetDepositCompleted(fields.TxId); err != nil {
		return err
	}

	e.notifier.depositCompleted(&agreement.DepositCompletedEvent{
		TxId:        fields.TxId,
		AssetId:     fields.AssetId,
		OutputAsset: fields.OutputAsset,
		GrossAmount: fields.GrossAmount,
		NetAmount:   out,
		Recipient:   fields.Recipient,
		LedgerId:    fields.LedgerId,
		Dispatched:  dispatched,
	})
	return nil
}
