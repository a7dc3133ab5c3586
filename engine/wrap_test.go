package engine

import (
	"errors"
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/assetregistry"
	"github.com/TEENet-io/wrap-go/common"
)

func newTestEnv(t *testing.T) (*SimulatedEnv, func()) {
	env, err := NewSimulatedEnv()
	assert.NoError(t, err)
	return env, env.Close
}

func TestWrapDirectDelivery(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, nil))

	// 1% + 0.5%, truncation favors the net recipient
	assert.Equal(t, big.NewInt(98_500), env.AssetA.BalanceOf(fields.Recipient))
	assert.Equal(t, big.NewInt(1_000), env.AssetA.BalanceOf(env.Treasury))
	assert.Equal(t, big.NewInt(500), env.AssetA.BalanceOf(env.Operator))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))

	d, ok, err := env.StateDB.GetDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.Completed)

	ev := <-env.Engine.Notifier().DepositCompletedEvents()
	assert.Equal(t, fields.TxId, ev.TxId)
	assert.Equal(t, big.NewInt(98_500), ev.NetAmount)
	assert.False(t, ev.Dispatched)
}

func TestWrapConservation(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	for _, gross := range []int64{1, 3, 999, 100_001, 123_457} {
		treasuryBefore := env.AssetA.BalanceOf(env.Treasury)
		operatorBefore := env.AssetA.BalanceOf(env.Operator)

		fields := env.RandDepositFields(gross)
		proof := env.RegisterDeposit(fields)
		assert.NoError(t, env.Engine.Wrap(proof, nil))

		// fees + net == gross, nothing stranded in custody
		sum := new(big.Int).Set(env.AssetA.BalanceOf(fields.Recipient))
		sum.Add(sum, new(big.Int).Sub(env.AssetA.BalanceOf(env.Treasury), treasuryBefore))
		sum.Add(sum, new(big.Int).Sub(env.AssetA.BalanceOf(env.Operator), operatorBefore))
		assert.Equal(t, big.NewInt(gross), sum)
		assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
	}
}

func TestWrapIdempotency(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, nil))
	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), ErrAlreadyProcessed)

	// issued exactly once
	assert.Equal(t, big.NewInt(100_000), env.AssetA.TotalSupply())
}

func TestWrapInvalidProof(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	proof := env.RegisterDeposit(fields)
	env.Verifier.Reject = true

	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), ErrInvalidProof)
	assert.Equal(t, big.NewInt(0), env.AssetA.TotalSupply())
}

func TestWrapUnsupportedAsset(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AssetId = 99
	proof := env.RegisterDeposit(fields)

	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), ErrUnsupportedAsset)
}

func TestWrapExchangeLocalDelivery(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.OutputAsset = SimAssetB
	proof := env.RegisterDeposit(fields)

	path := []agreement.AssetID{SimAssetA, SimAssetB}
	assert.NoError(t, env.Engine.Wrap(proof, path))

	// swapped 1:1, delivered in B; fees stay in A
	assert.Equal(t, big.NewInt(98_500), env.AssetB.BalanceOf(fields.Recipient))
	assert.Equal(t, big.NewInt(1_000), env.AssetA.BalanceOf(env.Treasury))
	assert.Equal(t, big.NewInt(500), env.AssetA.BalanceOf(env.Operator))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
	assert.Equal(t, big.NewInt(0), env.AssetB.BalanceOf(env.Cfg.EngineAccount))

	d, ok, err := env.StateDB.GetDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.Completed)
}

func TestWrapSwapFailureLeavesPendingRefund(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.OutputAsset = SimAssetB
	proof := env.RegisterDeposit(fields)
	env.Executor.Fail = true

	// swap failure is not an error of the call itself
	assert.NoError(t, env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetB}))

	// no fee distributed, full gross custodied, deposit not completed
	assert.Equal(t, big.NewInt(100_000), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Treasury))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Operator))
	assert.Equal(t, big.NewInt(0), env.AssetB.BalanceOf(fields.Recipient))

	d, ok, err := env.StateDB.GetDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, d.Completed)

	ev := <-env.Engine.Notifier().DepositFailedEvents()
	assert.Equal(t, fields.TxId, ev.TxId)

	// the identifier is burned even though the deposit is parked
	assert.ErrorIs(t, env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetB}), ErrAlreadyProcessed)
}

func TestWrapInvalidPath(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.OutputAsset = SimAssetB
	proof := env.RegisterDeposit(fields)

	// wrong first hop
	err := env.Engine.Wrap(proof, []agreement.AssetID{SimAssetB, SimAssetB})
	assert.ErrorIs(t, err, ErrInvalidPath)

	// wrong last hop
	err = env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetA})
	assert.ErrorIs(t, err, ErrInvalidPath)

	// too short
	err = env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA})
	assert.ErrorIs(t, err, ErrInvalidPath)

	// path checks run before any issuance
	assert.Equal(t, big.NewInt(0), env.AssetA.TotalSupply())
}

func TestWrapDispatchToRemoteLedger(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	const remoteLedger agreement.LedgerID = 2
	assert.NoError(t, env.Engine.SetDestinationAsset(env.Admin, SimAssetB, remoteLedger, "0xwrapped-b"))

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.LedgerId = remoteLedger
	fields.OutputAsset = SimAssetB
	fields.BridgeFeeBps = 100 // 1%
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetB}))

	instr := env.Endpoint.Last()
	assert.NotNil(t, instr)
	assert.Equal(t, env.Cfg.RelayAdmin, instr.Depositor)
	assert.Equal(t, fields.Recipient, instr.Recipient)
	assert.Equal(t, SimAssetB, instr.InputAsset)
	assert.Equal(t, "0xwrapped-b", instr.OutputAsset)
	assert.Equal(t, big.NewInt(98_500), instr.InputAmount)
	assert.Equal(t, big.NewInt(97_515), instr.OutputAmount) // 98,500 - 1%
	assert.Equal(t, remoteLedger, instr.DestLedger)

	// the swapped amount moved to the bridge account
	assert.Equal(t, big.NewInt(98_500), env.AssetB.BalanceOf(env.Cfg.BridgeAccount))

	ev := <-env.Engine.Notifier().DepositCompletedEvents()
	assert.True(t, ev.Dispatched)
}

func TestWrapRemoteLedgerWithoutMapping(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.LedgerId = 2
	fields.OutputAsset = SimAssetB
	proof := env.RegisterDeposit(fields)

	err := env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetB})
	assert.ErrorIs(t, err, ErrNoDestinationMap)
	assert.Equal(t, big.NewInt(0), env.AssetA.TotalSupply())
}

func TestWrapReferralShare(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	payout := common.RandEthAddress()
	assert.NoError(t, env.Engine.SetThirdParty(env.Admin, "partner", ThirdParty{Payout: payout, FeeBps: 25}))

	fields := env.RandDepositFields(100_000)
	fields.ReferralId = "partner"
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, nil))

	assert.Equal(t, big.NewInt(250), env.AssetA.BalanceOf(payout))
	assert.Equal(t, big.NewInt(98_250), env.AssetA.BalanceOf(fields.Recipient))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
}

func TestWrapReferralShareWithheld(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	// referral configured with a fee but no payout account
	assert.NoError(t, env.Engine.SetThirdParty(env.Admin, "partner", ThirdParty{FeeBps: 25}))

	fields := env.RandDepositFields(100_000)
	fields.ReferralId = "partner"
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, nil))

	// the share is computed and withheld in custody, not rerouted
	assert.Equal(t, big.NewInt(250), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
	assert.Equal(t, big.NewInt(98_250), env.AssetA.BalanceOf(fields.Recipient))
}

func TestWrapUnknownReferralCarriesNoShare(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.ReferralId = "nobody"
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, nil))
	assert.Equal(t, big.NewInt(98_500), env.AssetA.BalanceOf(fields.Recipient))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
}

// brokenAsset fails every issuance, standing in for a revoked or
// misbehaving capability.
type brokenAsset struct {
	*assetregistry.SimulatedAsset
}

var errIssueBroken = errors.New("issuance capability unavailable")

func (ba *brokenAsset) Issue(to ethcommon.Address, amount *big.Int) error {
	return errIssueBroken
}

func TestWrapIssueFailureReleasesTxId(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	const id agreement.AssetID = 3
	broken := &brokenAsset{assetregistry.NewSimulatedAsset("broken")}
	assert.NoError(t, env.Engine.AddAsset(env.Admin, id, broken))

	fields := env.RandDepositFields(100_000)
	fields.AssetId = id
	fields.OutputAsset = id
	proof := env.RegisterDeposit(fields)

	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), errIssueBroken)

	// the failed admission left no row behind
	ok, err := env.StateDB.HasDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.False(t, ok)

	// once the capability works again, the same proof goes through
	assert.NoError(t, env.Engine.RemoveAsset(env.Admin, id))
	assert.NoError(t, env.Engine.AddAsset(env.Admin, id, assetregistry.NewSimulatedAsset("fixed")))
	assert.NoError(t, env.Engine.Wrap(proof, nil))

	d, ok, err := env.StateDB.GetDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.Completed)
}
