package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

// parkDeposit runs a deposit-with-exchange whose swap fails, leaving
// the gross amount custodied and the deposit pending refund.
func parkDeposit(t *testing.T, env *SimulatedEnv, gross int64) *agreement.DepositFields {
	fields := env.RandDepositFields(gross)
	fields.AppId = 7
	fields.OutputAsset = SimAssetB
	proof := env.RegisterDeposit(fields)

	env.Executor.Fail = true
	assert.NoError(t, env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetB}))
	env.Executor.Fail = false

	<-env.Engine.Notifier().DepositFailedEvents()
	return fields
}

func TestRefundParkedDeposit(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := parkDeposit(t, env, 100_000)

	err := env.Engine.Refund(env.Admin, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH)
	assert.NoError(t, err)

	// gross minus the standard split lands on the redemption log
	r, ok, err := env.StateDB.GetRedemption(1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, big.NewInt(98_500), r.BurnedAmount)
	assert.Equal(t, fields.Recipient, r.Requester)
	assert.Equal(t, testScriptP2WPKH, r.DestScript)
	assert.False(t, r.Processed)

	// fees distributed out of the parked balance
	assert.Equal(t, big.NewInt(1_000), env.AssetA.BalanceOf(env.Treasury))
	assert.Equal(t, big.NewInt(500), env.AssetA.BalanceOf(env.Operator))
	assert.Equal(t, big.NewInt(0), env.AssetA.BalanceOf(env.Cfg.EngineAccount))

	d, ok, err := env.StateDB.GetDeposit(fields.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.Completed)

	ev := <-env.Engine.Notifier().RefundProcessedEvents()
	assert.Equal(t, fields.TxId, ev.TxId)
	assert.Equal(t, uint64(1), ev.RedemptionIndex)
	assert.Equal(t, big.NewInt(98_500), ev.NetAmount)
}

func TestRefundTwice(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := parkDeposit(t, env, 100_000)

	assert.NoError(t, env.Engine.Refund(env.Admin, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH))
	assert.ErrorIs(t,
		env.Engine.Refund(env.Admin, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH),
		ErrAlreadyCompleted)
}

func TestRefundCompletedDeposit(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	proof := env.RegisterDeposit(fields)
	assert.NoError(t, env.Engine.Wrap(proof, nil))

	assert.ErrorIs(t,
		env.Engine.Refund(env.Admin, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH),
		ErrAlreadyCompleted)
}

func TestRefundRoles(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := parkDeposit(t, env, 100_000)

	// random callers and the custodian are refused
	assert.ErrorIs(t,
		env.Engine.Refund(common.RandEthAddress(), fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH),
		ErrUnauthorized)
	assert.ErrorIs(t,
		env.Engine.Refund(env.Custodian, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH),
		ErrUnauthorized)

	// the custodian admin may refund
	assert.NoError(t,
		env.Engine.Refund(env.CustodianAdmin, fields.TxId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH))
}

func TestRefundUnknownDeposit(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	var txId = common.RandBytes32()
	err := env.Engine.Refund(env.Admin, txId, testScriptP2WPKH, agreement.ScriptTypeP2WPKH)
	assert.ErrorIs(t, err, ErrUnknownDeposit)
}

func TestRefundInvalidScript(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := parkDeposit(t, env, 100_000)

	err := env.Engine.Refund(env.Admin, fields.TxId, testScriptBad, agreement.ScriptTypeP2WPKH)
	assert.ErrorIs(t, err, ErrInvalidScript)

	// custody untouched
	assert.Equal(t, big.NewInt(100_000), env.AssetA.BalanceOf(env.Cfg.EngineAccount))
}
