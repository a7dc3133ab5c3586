package engine

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
)

// Roles are the privileged identities of the engine. Capability checks
// happen once, at the public entry points.
type Roles struct {
	Admin          ethcommon.Address // configuration surface
	Custodian      ethcommon.Address // submits settlement confirmations
	CustodianAdmin ethcommon.Address // may trigger refunds, next to Admin
}

// FeeConfig holds the engine-wide fee percentages in basis points.
// The referral percentage is per third party, not here.
type FeeConfig struct {
	ProtocolBps uint32
	OperatorBps uint32
}

// ThirdParty is a fee-sharing counterparty, keyed by referral id.
type ThirdParty struct {
	Payout ethcommon.Address
	FeeBps uint32
}

// PayoutTarget resolves where the operator fee share goes: either
// directly to the operator account, or handed to a reward delegate
// under a virtual identity.
type PayoutTarget struct {
	Account         ethcommon.Address        // direct payout account
	Delegate        agreement.RewardDelegate // non-nil = delegated
	DelegateAccount ethcommon.Address
	VirtualId       ethcommon.Hash
}

func (p PayoutTarget) Delegated() bool {
	return p.Delegate != nil
}

func (p PayoutTarget) String() string {
	if p.Delegated() {
		return fmt.Sprintf("Delegated { account: %s, virtualId: %s }", p.DelegateAccount, p.VirtualId)
	}
	return fmt.Sprintf("Direct { account: %s }", p.Account)
}

// Config is the construction-time configuration of the engine. The
// mutable parts (fees, roles, registries, targets) move into the
// engine and change only through the admin surface.
type Config struct {
	// LocalLedger is the id of the ledger the engine issues on.
	LocalLedger agreement.LedgerID

	// EngineAccount is the custody account all issued value passes
	// through.
	EngineAccount ethcommon.Address

	Treasury ethcommon.Address
	Operator ethcommon.Address

	Roles Roles
	Fees  FeeConfig

	// RelayAdmin is the depositor identity of every settlement
	// instruction.
	RelayAdmin ethcommon.Address

	// BridgeAccount receives balances handed to the settlement relay.
	BridgeAccount ethcommon.Address

	// ChainParams of the external UTXO chain, used to validate
	// destination scripts.
	ChainParams *chaincfg.Params

	// ChannelSize of the notification channels.
	ChannelSize int
}

func (cfg *Config) validate() error {
	if cfg.EngineAccount == (ethcommon.Address{}) {
		return fmt.Errorf("engine account not configured")
	}
	if cfg.Treasury == (ethcommon.Address{}) {
		return fmt.Errorf("treasury not configured")
	}
	if cfg.Roles.Admin == (ethcommon.Address{}) {
		return fmt.Errorf("admin role not configured")
	}
	if uint64(cfg.Fees.ProtocolBps)+uint64(cfg.Fees.OperatorBps) > 10000 {
		return ErrOutOfRangeFee
	}
	if cfg.ChainParams == nil {
		return fmt.Errorf("chain params not configured")
	}
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 16
	}
	return nil
}

type destKey struct {
	Asset  agreement.AssetID
	Ledger agreement.LedgerID
}
