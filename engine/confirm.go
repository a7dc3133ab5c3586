package engine

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/state"
)

// ConfirmRedemptions marks a batch of redemption log entries settled,
// backed by one inclusion proof of the external settlement
// transaction. Custodian only.
//
// The batch is checked as a whole before any entry is touched: an
// unknown index, an already-processed entry, or a duplicate inside
// the submitted batch aborts the call with no entry mutated.
func (e *Engine) ConfirmRedemptions(
	caller ethcommon.Address,
	proof *agreement.DepositProof,
	indices []uint64,
) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.isCustodian(caller) {
		return fmt.Errorf("%w: confirmation requires the custodian role", ErrUnauthorized)
	}
	if len(indices) == 0 {
		return fmt.Errorf("%w: empty confirmation batch", ErrValueMismatch)
	}

	if err := e.gate.VerifyInclusion(proof); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	redemptions := make([]*state.Redemption, 0, len(indices))
	seen := make(map[uint64]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			return fmt.Errorf("%w: index %d repeated in batch", ErrAlreadyProcessed, idx)
		}
		seen[idx] = true

		r, ok, err := e.statedb.GetRedemption(idx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownRedemption, idx)
		}
		if r.Processed {
			return fmt.Errorf("%w: redemption %d", ErrAlreadyProcessed, idx)
		}
		redemptions = append(redemptions, r)
	}

	for _, r := range redemptions {
		if err := e.statedb.SetRedemptionProcessed(r.Index, proof.TxId, r.BurnedAmount.Uint64()); err != nil {
			return err
		}

		e.notifier.redemptionConfirmed(&agreement.RedemptionConfirmedEvent{
			Index:        r.Index,
			Requester:    r.Requester,
			BurnedAmount: r.BurnedAmount,
			DestScript:   r.DestScript,
			ConfirmTxId:  proof.TxId,
		})
	}

	logger.WithFields(logger.Fields{
		"count":       len(redemptions),
		"confirmTxId": proof.TxId.String(),
	}).Info("redemption batch confirmed")

	return nil
}
