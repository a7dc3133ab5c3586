// Golbal Agreement on types shared between the engine and its
// external collaborators.

package agreement

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
)

// AssetID is the internal registry id of a wrapped asset.
type AssetID uint32

// LedgerID identifies a destination ledger.
// The engine's own ledger is the configured "local" one.
type LedgerID uint32

// ScriptType names the kind of destination script on the
// external UTXO chain.
type ScriptType string

const (
	ScriptTypeP2PKH  ScriptType = "p2pkh"
	ScriptTypeP2WPKH ScriptType = "p2wpkh"
	ScriptTypeP2TR   ScriptType = "p2tr"
)

// DepositProof is the bundle a relayer submits to prove inclusion of a
// transaction on the external UTXO chain. MetaData carries the RLP
// encoded deposit request the user attached to the transaction
// (see common.DepositMeta).
type DepositProof struct {
	TxId      common.Hash
	BlockHash chainhash.Hash
	Height    uint64
	MetaData  []byte
	Raw       []byte // raw external transaction, opaque to the engine
}

func (p *DepositProof) String() string {
	return fmt.Sprintf("DepositProof { TxId: %s, Block: %s, Height: %d }",
		p.TxId, p.BlockHash, p.Height)
}

// DepositFields are the parsed fields the proof verifier extracts
// from a proven deposit transaction.
type DepositFields struct {
	TxId         common.Hash
	LedgerId     LedgerID
	AppId        uint64 // exchange application, 0 = no exchange requested
	AssetId      AssetID
	GrossAmount  *big.Int
	Recipient    common.Address
	ReferralId   string
	OutputAsset  AssetID
	BridgeFeeBps uint32
	SpeedFlag    bool
}

func (f *DepositFields) String() string {
	return fmt.Sprintf("%+v", *f)
}

// SettlementInstruction is a cross-chain delivery obligation handed to
// the settlement relay. The engine's guarantee ends at "instruction
// correctly constructed and handed off".
type SettlementInstruction struct {
	Depositor    common.Address // configured relay-admin identity
	Recipient    common.Address // end user on the destination ledger
	InputAsset   AssetID        // local wrapped asset
	OutputAsset  string         // remote asset identifier on the destination ledger
	InputAmount  *big.Int
	OutputAmount *big.Int // InputAmount scaled down by the bridge fee
	DestLedger   LedgerID
	Deadline     int64 // unix seconds
}

func (in *SettlementInstruction) String() string {
	return fmt.Sprintf("%+v", *in)
}

// DepositCompletedEvent is published when a deposit has been delivered,
// swapped, or dispatched.
type DepositCompletedEvent struct {
	TxId        common.Hash
	AssetId     AssetID
	OutputAsset AssetID
	GrossAmount *big.Int
	NetAmount   *big.Int
	Recipient   common.Address
	LedgerId    LedgerID
	Dispatched  bool // true = handed to the settlement relay
}

func (ev *DepositCompletedEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// DepositFailedEvent is published when the exchange leg of a deposit
// failed. The gross amount stays custodied pending an admin refund.
type DepositFailedEvent struct {
	TxId        common.Hash
	AssetId     AssetID
	GrossAmount *big.Int
	Reason      string
}

func (ev *DepositFailedEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// RedemptionCreatedEvent is published when a redemption request is
// appended to the redemption log.
type RedemptionCreatedEvent struct {
	Index        uint64
	Requester    common.Address
	AssetId      AssetID
	BurnedAmount *big.Int
	DestScript   string
	ScriptType   ScriptType
	Swapped      bool // true = swap-then-redeem
}

func (ev *RedemptionCreatedEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// RedemptionConfirmedEvent is published when the custodian proves the
// external settlement of a redemption.
type RedemptionConfirmedEvent struct {
	Index        uint64
	Requester    common.Address
	BurnedAmount *big.Int
	DestScript   string
	ConfirmTxId  common.Hash
}

func (ev *RedemptionConfirmedEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// RefundProcessedEvent correlates a refunded deposit to the redemption
// log entry it produced.
type RefundProcessedEvent struct {
	TxId            common.Hash
	RedemptionIndex uint64
	AssetId         AssetID
	NetAmount       *big.Int
}

func (ev *RefundProcessedEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// AssetAddedEvent is published when the admin binds an asset id to an
// issuance capability.
type AssetAddedEvent struct {
	AssetId AssetID
}

// AssetRemovedEvent is published when the admin unbinds an asset id.
type AssetRemovedEvent struct {
	AssetId AssetID
}
