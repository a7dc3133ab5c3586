package agreement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WrappedAsset is the issuance/redemption capability of one wrapped
// asset on the local ledger. The engine never implements this itself;
// it is granted by the ledger (token contract, native asset module...)
// and bound to an asset id in the registry.
type WrappedAsset interface {
	// Issue mints amount into the given account.
	Issue(to common.Address, amount *big.Int) error

	// Redeem burns amount out of the given account.
	Redeem(from common.Address, amount *big.Int) error

	// Transfer moves amount between two accounts.
	Transfer(from, to common.Address, amount *big.Int) error

	// Approve lets spender move up to amount out of owner.
	Approve(owner, spender common.Address, amount *big.Int) error

	// BalanceOf reports the current balance of an account.
	BalanceOf(account common.Address) *big.Int
}

// ProofVerifier validates inclusion proofs of external-chain
// transactions. Verifier internals (header relay, merkle checking)
// are not the engine's business.
type ProofVerifier interface {
	// Verify checks inclusion and parses the deposit fields carried
	// by the proven transaction.
	Verify(proof *DepositProof) (*DepositFields, error)

	// VerifyInclusion checks inclusion only. Used for redemption
	// confirmations, where the proven transaction carries no deposit
	// meta.
	VerifyInclusion(proof *DepositProof) error
}

// ExchangeExecutor executes a swap along a path of asset ids. The
// executor enforces its own slippage bound; a breach surfaces as an
// error. The input amount is taken from and the output amount is
// credited to the engine's custody account.
type ExchangeExecutor interface {
	Swap(appId uint64, path []AssetID, amountIn *big.Int) (*big.Int, error)
}

// SettlementDispatcher relays a balance to another destination ledger.
// Fire-and-forget: a nil return means the instruction was accepted by
// the relay, not that it settled.
type SettlementDispatcher interface {
	Dispatch(instr *SettlementInstruction) error
}

// RewardDelegate receives the operator fee share on behalf of the
// operator. The virtual id is an indirection that lets reward
// accounting be delegated without the engine knowing staking
// internals.
type RewardDelegate interface {
	DepositReward(virtualId common.Hash, asset AssetID, amount *big.Int) error
}
