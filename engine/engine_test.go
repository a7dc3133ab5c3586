package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

// reentrantExecutor calls back into the engine from inside the swap,
// which the call-depth guard must reject.
type reentrantExecutor struct {
	eng     *Engine
	proof   *agreement.DepositProof
	nested  error
	entered bool
}

func (re *reentrantExecutor) Swap(appId uint64, path []agreement.AssetID, amountIn *big.Int) (*big.Int, error) {
	re.entered = true
	re.nested = re.eng.Wrap(re.proof, nil)
	return new(big.Int).Set(amountIn), nil
}

func TestReentrantCallRejected(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	nestedFields := env.RandDepositFields(50_000)
	nestedProof := env.RegisterDeposit(nestedFields)

	re := &reentrantExecutor{eng: env.Engine, proof: nestedProof}
	env.Engine.executor = re

	fields := env.RandDepositFields(100_000)
	fields.AppId = 7
	fields.OutputAsset = SimAssetA
	proof := env.RegisterDeposit(fields)

	assert.NoError(t, env.Engine.Wrap(proof, []agreement.AssetID{SimAssetA, SimAssetA}))

	assert.True(t, re.entered)
	assert.ErrorIs(t, re.nested, ErrReentrantCall)

	// the nested deposit left no trace
	ok, err := env.StateDB.HasDeposit(nestedFields.TxId)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGuardReleasedAfterAbort(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	fields := env.RandDepositFields(100_000)
	fields.AssetId = 99
	proof := env.RegisterDeposit(fields)
	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), ErrUnsupportedAsset)

	// an aborted unit of work must not leave the guard held
	fields2 := env.RandDepositFields(100_000)
	proof2 := env.RegisterDeposit(fields2)
	assert.NoError(t, env.Engine.Wrap(proof2, nil))
}

func TestNewEngineValidatesConfig(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	cfg := *env.Cfg
	cfg.Treasury = common.RandEthAddress()
	cfg.Fees = FeeConfig{ProtocolBps: 9_000, OperatorBps: 2_000}

	_, err := New(&cfg, env.StateDB, env.Registry, nil, env.Executor, nil, env.Endpoint)
	assert.ErrorIs(t, err, ErrOutOfRangeFee)
}

func TestProofFloorRejectsStaleHeights(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	assert.NoError(t, env.Engine.RaiseProofFloor(env.Admin, 150))

	// proofs below the floor never reach the verifier
	fields := env.RandDepositFields(100_000)
	proof := env.RegisterDeposit(fields) // height 100
	assert.ErrorIs(t, env.Engine.Wrap(proof, nil), ErrInvalidProof)

	// the floor only moves forward
	assert.Error(t, env.Engine.RaiseProofFloor(env.Admin, 120))

	proof.Height = 200
	assert.NoError(t, env.Engine.Wrap(proof, nil))
}
