package engine

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
)

// The admin surface. Every setter is admin-gated and logs the before
// and after values of the field it touches.

func (e *Engine) requireAdmin(caller ethcommon.Address) error {
	if !e.isAdmin(caller) {
		return fmt.Errorf("%w: requires the admin role", ErrUnauthorized)
	}
	return nil
}

// AddAsset binds an asset id to its issuance capability.
func (e *Engine) AddAsset(caller ethcommon.Address, id agreement.AssetID, asset agreement.WrappedAsset) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.registry.Add(id, asset); err != nil {
		return err
	}

	logger.WithField("assetId", id).Info("asset added")
	e.notifier.assetAdded(&agreement.AssetAddedEvent{AssetId: id})
	return nil
}

// RemoveAsset unbinds an asset id.
func (e *Engine) RemoveAsset(caller ethcommon.Address, id agreement.AssetID) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.registry.Remove(id); err != nil {
		return err
	}

	logger.WithField("assetId", id).Info("asset removed")
	e.notifier.assetRemoved(&agreement.AssetRemovedEvent{AssetId: id})
	return nil
}

// SetFeeConfig replaces the engine-wide fee percentages.
func (e *Engine) SetFeeConfig(caller ethcommon.Address, fees FeeConfig) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if uint64(fees.ProtocolBps)+uint64(fees.OperatorBps) > 10000 {
		return ErrOutOfRangeFee
	}

	logger.WithFields(logger.Fields{
		"before": fmt.Sprintf("%+v", e.fees),
		"after":  fmt.Sprintf("%+v", fees),
	}).Info("fee config changed")
	e.fees = fees
	return nil
}

// SetTreasury changes the account receiving the protocol fee share.
func (e *Engine) SetTreasury(caller ethcommon.Address, treasury ethcommon.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if treasury == (ethcommon.Address{}) {
		return fmt.Errorf("%w: zero treasury account", ErrValueMismatch)
	}

	logger.WithFields(logger.Fields{
		"before": e.treasury.Hex(),
		"after":  treasury.Hex(),
	}).Info("treasury changed")
	e.treasury = treasury
	return nil
}

// SetOperator redirects the operator fee share to a direct payout
// account, clearing any reward delegation.
func (e *Engine) SetOperator(caller ethcommon.Address, operator ethcommon.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if operator == (ethcommon.Address{}) {
		return fmt.Errorf("%w: zero operator account", ErrValueMismatch)
	}

	after := PayoutTarget{Account: operator}
	logger.WithFields(logger.Fields{
		"before": e.rewardTarget.String(),
		"after":  after.String(),
	}).Info("operator payout changed")
	e.rewardTarget = after
	return nil
}

// SetRewardDelegate hands the operator fee share to a reward delegate
// under a virtual identity.
func (e *Engine) SetRewardDelegate(
	caller ethcommon.Address,
	delegate agreement.RewardDelegate,
	delegateAccount ethcommon.Address,
	virtualId ethcommon.Hash,
) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if delegate == nil || delegateAccount == (ethcommon.Address{}) {
		return fmt.Errorf("%w: delegate and delegate account required", ErrValueMismatch)
	}

	after := PayoutTarget{
		Delegate:        delegate,
		DelegateAccount: delegateAccount,
		VirtualId:       virtualId,
	}
	logger.WithFields(logger.Fields{
		"before": e.rewardTarget.String(),
		"after":  after.String(),
	}).Info("operator payout delegated")
	e.rewardTarget = after
	return nil
}

// SetThirdParty registers or updates a fee-sharing counterparty.
func (e *Engine) SetThirdParty(caller ethcommon.Address, referralId string, tp ThirdParty) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if referralId == "" {
		return fmt.Errorf("%w: empty referral id", ErrValueMismatch)
	}
	if uint64(e.fees.ProtocolBps)+uint64(e.fees.OperatorBps)+uint64(tp.FeeBps) > 10000 {
		return ErrOutOfRangeFee
	}

	logger.WithFields(logger.Fields{
		"referralId": referralId,
		"before":     fmt.Sprintf("%+v", e.thirdParties[referralId]),
		"after":      fmt.Sprintf("%+v", tp),
	}).Info("third party set")
	e.thirdParties[referralId] = tp
	return nil
}

// RemoveThirdParty drops a fee-sharing counterparty. Deposits carrying
// its referral id afterwards have their referral share withheld.
func (e *Engine) RemoveThirdParty(caller ethcommon.Address, referralId string) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"referralId": referralId,
		"before":     fmt.Sprintf("%+v", e.thirdParties[referralId]),
	}).Info("third party removed")
	delete(e.thirdParties, referralId)
	return nil
}

// SetDestinationAsset maps a local asset to its identifier on a
// remote ledger. Required before any deposit can dispatch there.
func (e *Engine) SetDestinationAsset(
	caller ethcommon.Address,
	asset agreement.AssetID,
	ledger agreement.LedgerID,
	remoteAsset string,
) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if ledger == e.cfg.LocalLedger {
		return fmt.Errorf("%w: local ledger needs no destination mapping", ErrValueMismatch)
	}

	key := destKey{asset, ledger}
	logger.WithFields(logger.Fields{
		"assetId": asset,
		"ledger":  ledger,
		"before":  e.destAssets[key],
		"after":   remoteAsset,
	}).Info("destination asset mapping changed")

	if remoteAsset == "" {
		delete(e.destAssets, key)
		return nil
	}
	e.destAssets[key] = remoteAsset
	return nil
}

// SetBridgeEndpoint swaps the settlement relay endpoint.
func (e *Engine) SetBridgeEndpoint(caller ethcommon.Address, endpoint agreement.SettlementDispatcher) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if endpoint == nil {
		return fmt.Errorf("%w: nil endpoint", ErrValueMismatch)
	}

	logger.Info("bridge endpoint changed")
	e.endpoint = endpoint
	return nil
}

// SetCustodian assigns the role submitting settlement confirmations.
func (e *Engine) SetCustodian(caller ethcommon.Address, custodian ethcommon.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"before": e.roles.Custodian.Hex(),
		"after":  custodian.Hex(),
	}).Info("custodian changed")
	e.roles.Custodian = custodian
	return nil
}

// SetCustodianAdmin assigns the role allowed to refund, next to the
// admin.
func (e *Engine) SetCustodianAdmin(caller ethcommon.Address, custodianAdmin ethcommon.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"before": e.roles.CustodianAdmin.Hex(),
		"after":  custodianAdmin.Hex(),
	}).Info("custodian admin changed")
	e.roles.CustodianAdmin = custodianAdmin
	return nil
}

// TransferAdmin hands the admin role to another account.
func (e *Engine) TransferAdmin(caller ethcommon.Address, admin ethcommon.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if admin == (ethcommon.Address{}) {
		return fmt.Errorf("%w: zero admin account", ErrValueMismatch)
	}

	logger.WithFields(logger.Fields{
		"before": e.roles.Admin.Hex(),
		"after":  admin.Hex(),
	}).Info("admin transferred")
	e.roles.Admin = admin
	return nil
}

// RaiseProofFloor moves the proof height floor forward. The floor
// never moves back.
func (e *Engine) RaiseProofFloor(caller ethcommon.Address, height uint64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.requireAdmin(caller); err != nil {
		return err
	}

	before := e.gate.Floor()
	if err := e.gate.RaiseFloor(height); err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"before": before,
		"after":  height,
	}).Info("proof height floor raised")
	return nil
}
