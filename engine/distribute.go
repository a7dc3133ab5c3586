package engine

import (
	logger "github.com/sirupsen/logrus"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/feesplit"
)

// distribute pays the fee legs of a split out of the engine custody
// account: protocol share to the treasury, operator share to the
// configured payout target, referral share to the third party. A
// referral share computed against an unconfigured third party is
// withheld in custody rather than paid.
func (e *Engine) distribute(
	split *feesplit.FeeSplit,
	assetId agreement.AssetID,
	asset agreement.WrappedAsset,
	referralAccount ethcommon.Address,
) error {
	if split.ProtocolFee.Sign() > 0 {
		if err := asset.Transfer(e.cfg.EngineAccount, e.treasury, split.ProtocolFee); err != nil {
			return err
		}
	}

	if split.OperatorFee.Sign() > 0 {
		if err := e.payOperatorShare(assetId, asset, split); err != nil {
			return err
		}
	}

	if split.ReferralFee.Sign() > 0 {
		if referralAccount == (ethcommon.Address{}) {
			logger.WithFields(logger.Fields{
				"assetId": assetId,
				"amount":  split.ReferralFee,
			}).Warn("referral share withheld, no payout account configured")
			return nil
		}
		if err := asset.Transfer(e.cfg.EngineAccount, referralAccount, split.ReferralFee); err != nil {
			return err
		}
	}

	return nil
}

// payOperatorShare routes the operator fee either straight to the
// payout account or through the reward delegate. A delegated payout
// approves the delegate's account to pull the share from custody,
// then notifies the delegate under the configured virtual identity.
func (e *Engine) payOperatorShare(
	assetId agreement.AssetID,
	asset agreement.WrappedAsset,
	split *feesplit.FeeSplit,
) error {
	target := e.rewardTarget
	if !target.Delegated() {
		return asset.Transfer(e.cfg.EngineAccount, target.Account, split.OperatorFee)
	}

	if err := asset.Approve(e.cfg.EngineAccount, target.DelegateAccount, split.OperatorFee); err != nil {
		return err
	}
	return target.Delegate.DepositReward(target.VirtualId, assetId, split.OperatorFee)
}
