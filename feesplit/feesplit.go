// Pure fee arithmetic of the engine. No state, no collaborators.

package feesplit

import (
	"errors"
	"fmt"
	"math/big"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10000

var (
	ErrOutOfRangeFee  = errors.New("configured fee percentages exceed 100%")
	ErrAmountInvalid  = errors.New("gross amount must be positive")
	bpsDenominatorBig = big.NewInt(BpsDenominator)
)

// FeeSplit is the result of dividing a gross amount between the
// protocol, the operator, an optional referral and the net recipient.
type FeeSplit struct {
	ProtocolFee *big.Int
	OperatorFee *big.Int
	ReferralFee *big.Int
	NetAmount   *big.Int
}

func (fs *FeeSplit) String() string {
	return fmt.Sprintf("FeeSplit { protocol: %v, operator: %v, referral: %v, net: %v }",
		fs.ProtocolFee, fs.OperatorFee, fs.ReferralFee, fs.NetAmount)
}

// Total returns the sum of all components. Always equals the gross
// amount the split was computed from.
func (fs *FeeSplit) Total() *big.Int {
	total := new(big.Int).Add(fs.ProtocolFee, fs.OperatorFee)
	total.Add(total, fs.ReferralFee)
	return total.Add(total, fs.NetAmount)
}

// Split divides gross into fee components and the net amount.
//
// Each fee component is computed independently as
//
//	fee_i = floor(gross * bps_i / 10000)
//
// and the net amount is gross minus the sum of the components. Every
// truncated remainder therefore accrues to the net recipient, never to
// a fee recipient. Independent implementations must reproduce this
// bit-for-bit: three floor divisions, then one subtraction.
//
// Fails with ErrOutOfRangeFee when the bps sum exceeds 10000, instead
// of ever producing a negative net amount.
func Split(gross *big.Int, protocolBps, operatorBps, referralBps uint32) (*FeeSplit, error) {
	if gross == nil || gross.Sign() <= 0 {
		return nil, ErrAmountInvalid
	}
	if uint64(protocolBps)+uint64(operatorBps)+uint64(referralBps) > BpsDenominator {
		return nil, ErrOutOfRangeFee
	}

	fs := &FeeSplit{
		ProtocolFee: mulBps(gross, protocolBps),
		OperatorFee: mulBps(gross, operatorBps),
		ReferralFee: mulBps(gross, referralBps),
	}

	net := new(big.Int).Sub(gross, fs.ProtocolFee)
	net.Sub(net, fs.OperatorFee)
	net.Sub(net, fs.ReferralFee)
	fs.NetAmount = net

	return fs, nil
}

// ScaleDown returns floor(amount * (10000 - bps) / 10000), the amount
// left after discounting a bps fee. Used for the bridge fee applied on
// cross-chain relays.
func ScaleDown(amount *big.Int, bps uint32) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrAmountInvalid
	}
	if bps > BpsDenominator {
		return nil, ErrOutOfRangeFee
	}

	kept := new(big.Int).Mul(amount, big.NewInt(int64(BpsDenominator-bps)))
	return kept.Div(kept, bpsDenominatorBig), nil
}

func mulBps(amount *big.Int, bps uint32) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return fee.Div(fee, bpsDenominatorBig)
}
