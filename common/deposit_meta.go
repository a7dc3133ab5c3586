package common

/*
Defines the deposit meta data a user attaches to the deposit transaction
on the external UTXO chain (eg. inside an OP_RETURN output).
It names the destination ledger, the asset to issue, the recipient and
the optional exchange request. The proof verifier hands the RLP encoded
bytes back to the engine, which decodes them with DecodeDepositMeta().
*/

import (
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var ErrRecipientLength = errors.New("recipient must be 20 bytes")

// DepositMeta is the on-chain deposit request, RLP encoded.
// Field order is part of the wire format, do not reorder.
type DepositMeta struct {
	LedgerId     uint32   // destination ledger id
	AppId        uint64   // exchange application, 0 = no exchange
	AssetId      uint32   // asset to issue
	Recipient    [20]byte // recipient account on the local ledger
	ReferralId   string   // optional fee-sharing counterparty
	OutputAsset  uint32   // declared output asset of the exchange
	BridgeFeeBps uint32   // discount applied on cross-chain relay
	SpeedFlag    bool
}

// Serialize deposit meta via RLP
func (dm *DepositMeta) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(dm)
}

// DecodeDepositMeta decodes deposit meta from RLP encoded []byte
func DecodeDepositMeta(data []byte) (*DepositMeta, error) {
	var dm DepositMeta
	if err := rlp.DecodeBytes(data, &dm); err != nil {
		return nil, err
	}
	return &dm, nil
}

// RecipientAddress returns the recipient as a ledger address.
func (dm *DepositMeta) RecipientAddress() ethcommon.Address {
	return ethcommon.BytesToAddress(dm.Recipient[:])
}

// MakeDepositMeta builds the RLP bytes a user shall attach to the
// deposit transaction.
func MakeDepositMeta(
	ledgerId uint32,
	appId uint64,
	assetId uint32,
	recipient ethcommon.Address,
	referralId string,
	outputAsset uint32,
	bridgeFeeBps uint32,
	speedFlag bool,
) ([]byte, error) {
	var r [20]byte
	if copy(r[:], recipient.Bytes()) != 20 {
		return nil, ErrRecipientLength
	}

	dm := DepositMeta{
		LedgerId:     ledgerId,
		AppId:        appId,
		AssetId:      assetId,
		Recipient:    r,
		ReferralId:   referralId,
		OutputAsset:  outputAsset,
		BridgeFeeBps: bridgeFeeBps,
		SpeedFlag:    speedFlag,
	}
	return dm.Serialize()
}
