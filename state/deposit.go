package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

var (
	ErrorTxIdInvalid   = errors.New("deposit tx id invalid")
	ErrorAmountInvalid = errors.New("deposit amount invalid")
)

// Deposit is one processed deposit, keyed by the external transaction
// id. A row exists from the first successful proof verification on;
// Used is set on insert and never cleared, Completed flips false→true
// at most once. A row with Completed == false is the pending-refund
// state.
type Deposit struct {
	TxId         ethcommon.Hash
	Used         bool
	Completed    bool
	LedgerId     agreement.LedgerID
	AppId        uint64 // exchange application, 0 = none
	AssetId      agreement.AssetID
	GrossAmount  *big.Int
	Recipient    ethcommon.Address
	ReferralId   string
	OutputAsset  agreement.AssetID
	BridgeFeeBps uint32
	SpeedFlag    bool
}

// CreateDepositFromFields builds the ledger row for freshly verified
// deposit fields. Used is set here; Completed is decided by the wrap
// flow.
func CreateDepositFromFields(fields *agreement.DepositFields) (*Deposit, error) {
	if fields.TxId == (ethcommon.Hash{}) {
		return nil, ErrorTxIdInvalid
	}
	if fields.GrossAmount == nil || fields.GrossAmount.Sign() <= 0 {
		return nil, ErrorAmountInvalid
	}
	// the ledger stores amounts as uint64
	if fields.GrossAmount.BitLen() > 64 {
		return nil, ErrorAmountInvalid
	}

	return &Deposit{
		TxId:         fields.TxId,
		Used:         true,
		Completed:    false,
		LedgerId:     fields.LedgerId,
		AppId:        fields.AppId,
		AssetId:      fields.AssetId,
		GrossAmount:  new(big.Int).Set(fields.GrossAmount),
		Recipient:    fields.Recipient,
		ReferralId:   fields.ReferralId,
		OutputAsset:  fields.OutputAsset,
		BridgeFeeBps: fields.BridgeFeeBps,
		SpeedFlag:    fields.SpeedFlag,
	}, nil
}

func (d *Deposit) Clone() *Deposit {
	clone := *d
	clone.GrossAmount = new(big.Int).Set(d.GrossAmount)
	return &clone
}

func (d *Deposit) String() string {
	return fmt.Sprintf("Deposit { TxId: %s, Used: %v, Completed: %v, Asset: %d, Gross: %v, Recipient: %s, App: %d }",
		d.TxId, d.Used, d.Completed, d.AssetId, d.GrossAmount, d.Recipient, d.AppId)
}

type sqlDeposit struct {
	TxId         string
	Used         int
	Completed    int
	LedgerId     uint32
	AppId        uint64
	AssetId      uint32
	GrossAmount  uint64
	Recipient    string
	ReferralId   string
	OutputAsset  uint32
	BridgeFeeBps uint32
	SpeedFlag    int
}

func (s *sqlDeposit) encode(d *Deposit) *sqlDeposit {
	return &sqlDeposit{
		TxId:         d.TxId.String()[2:],
		Used:         boolToInt(d.Used),
		Completed:    boolToInt(d.Completed),
		LedgerId:     uint32(d.LedgerId),
		AppId:        d.AppId,
		AssetId:      uint32(d.AssetId),
		GrossAmount:  d.GrossAmount.Uint64(),
		Recipient:    d.Recipient.String()[2:],
		ReferralId:   d.ReferralId,
		OutputAsset:  uint32(d.OutputAsset),
		BridgeFeeBps: d.BridgeFeeBps,
		SpeedFlag:    boolToInt(d.SpeedFlag),
	}
}

func (s *sqlDeposit) decode() *Deposit {
	return &Deposit{
		TxId:         common.HexStrToBytes32(s.TxId),
		Used:         s.Used != 0,
		Completed:    s.Completed != 0,
		LedgerId:     agreement.LedgerID(s.LedgerId),
		AppId:        s.AppId,
		AssetId:      agreement.AssetID(s.AssetId),
		GrossAmount:  new(big.Int).SetUint64(s.GrossAmount),
		Recipient:    ethcommon.HexToAddress("0x" + s.Recipient),
		ReferralId:   s.ReferralId,
		OutputAsset:  agreement.AssetID(s.OutputAsset),
		BridgeFeeBps: s.BridgeFeeBps,
		SpeedFlag:    s.SpeedFlag != 0,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
