package proofgate

import (
	"errors"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

var (
	ErrUnknownProof = errors.New("no registered deposit for tx id")
	ErrForcedReject = errors.New("forced rejection")
)

// SimulatedVerifier stands in for the external header-relay oracle.
// Proofs are "verified" against a pre-registered set of deposits, or
// by decoding the RLP deposit meta carried in the proof itself when
// an amount has been registered for the tx id.
type SimulatedVerifier struct {
	deposits map[ethcommon.Hash]*agreement.DepositFields
	amounts  map[ethcommon.Hash]*big.Int
	Reject   bool // reject everything, for failure injection
}

func NewSimulatedVerifier() *SimulatedVerifier {
	return &SimulatedVerifier{
		deposits: make(map[ethcommon.Hash]*agreement.DepositFields),
		amounts:  make(map[ethcommon.Hash]*big.Int),
	}
}

// RegisterDeposit pre-loads fully parsed fields for a tx id.
func (sv *SimulatedVerifier) RegisterDeposit(fields *agreement.DepositFields) {
	sv.deposits[fields.TxId] = fields
}

// RegisterAmount pre-loads only the deposited amount; the rest of the
// fields are decoded from the proof's RLP meta data on Verify.
func (sv *SimulatedVerifier) RegisterAmount(txId ethcommon.Hash, amount *big.Int) {
	sv.amounts[txId] = new(big.Int).Set(amount)
}

func (sv *SimulatedVerifier) Verify(proof *agreement.DepositProof) (*agreement.DepositFields, error) {
	if sv.Reject {
		return nil, ErrForcedReject
	}

	if fields, ok := sv.deposits[proof.TxId]; ok {
		return fields, nil
	}

	amount, ok := sv.amounts[proof.TxId]
	if !ok {
		return nil, ErrUnknownProof
	}
	dm, err := common.DecodeDepositMeta(proof.MetaData)
	if err != nil {
		return nil, err
	}

	return &agreement.DepositFields{
		TxId:         proof.TxId,
		LedgerId:     agreement.LedgerID(dm.LedgerId),
		AppId:        dm.AppId,
		AssetId:      agreement.AssetID(dm.AssetId),
		GrossAmount:  new(big.Int).Set(amount),
		Recipient:    dm.RecipientAddress(),
		ReferralId:   dm.ReferralId,
		OutputAsset:  agreement.AssetID(dm.OutputAsset),
		BridgeFeeBps: dm.BridgeFeeBps,
		SpeedFlag:    dm.SpeedFlag,
	}, nil
}

func (sv *SimulatedVerifier) VerifyInclusion(proof *agreement.DepositProof) error {
	if sv.Reject {
		return ErrForcedReject
	}
	return nil
}
