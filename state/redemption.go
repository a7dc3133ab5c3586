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
	ErrorBurnedAmountInvalid = errors.New("burned amount invalid")
	ErrorDestScriptEmpty     = errors.New("destination script empty")
)

// Redemption is one entry of the append-only redemption log. Index is
// assigned by the ledger on append and strictly increases. Processed
// flips false→true exactly once, on the custodian's external
// settlement confirmation.
type Redemption struct {
	Index         uint64
	Processed     bool
	BurnedAmount  *big.Int
	SettledAmount *big.Int // set on confirmation, zero before
	AppId         uint64
	Requester     ethcommon.Address
	DestScript    string
	ScriptType    agreement.ScriptType
	ConfirmTxId   ethcommon.Hash // external tx that settled this entry
}

func (r *Redemption) Validate() error {
	if r.BurnedAmount == nil || r.BurnedAmount.Sign() <= 0 {
		return ErrorBurnedAmountInvalid
	}
	if r.DestScript == "" {
		return ErrorDestScriptEmpty
	}
	return nil
}

func (r *Redemption) Clone() *Redemption {
	clone := *r
	clone.BurnedAmount = new(big.Int).Set(r.BurnedAmount)
	if r.SettledAmount != nil {
		clone.SettledAmount = new(big.Int).Set(r.SettledAmount)
	}
	return &clone
}

func (r *Redemption) String() string {
	return fmt.Sprintf("Redemption { Index: %d, Processed: %v, Burned: %v, Settled: %v, Requester: %s, Script: %s (%s) }",
		r.Index, r.Processed, r.BurnedAmount, r.SettledAmount, r.Requester, r.DestScript, r.ScriptType)
}

type sqlRedemption struct {
	Idx           uint64
	Processed     int
	BurnedAmount  uint64
	SettledAmount uint64
	AppId         uint64
	Requester     string
	DestScript    string
	ScriptType    string
	ConfirmTxId   string
}

func (s *sqlRedemption) encode(r *Redemption) *sqlRedemption {
	settled := uint64(0)
	if r.SettledAmount != nil {
		settled = r.SettledAmount.Uint64()
	}

	return &sqlRedemption{
		Idx:           r.Index,
		Processed:     boolToInt(r.Processed),
		BurnedAmount:  r.BurnedAmount.Uint64(),
		SettledAmount: settled,
		AppId:         r.AppId,
		Requester:     r.Requester.String()[2:],
		DestScript:    r.DestScript,
		ScriptType:    string(r.ScriptType),
		ConfirmTxId:   r.ConfirmTxId.String()[2:],
	}
}

func (s *sqlRedemption) decode() *Redemption {
	return &Redemption{
		Index:         s.Idx,
		Processed:     s.Processed != 0,
		BurnedAmount:  new(big.Int).SetUint64(s.BurnedAmount),
		SettledAmount: new(big.Int).SetUint64(s.SettledAmount),
		AppId:         s.AppId,
		Requester:     ethcommon.HexToAddress("0x" + s.Requester),
		DestScript:    s.DestScript,
		ScriptType:    agreement.ScriptType(s.ScriptType),
		ConfirmTxId:   common.HexStrToBytes32(s.ConfirmTxId),
	}
}
