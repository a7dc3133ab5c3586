package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

// appendRedemptions burns count redemptions of 10,000 units each and
// returns their log indices.
func appendRedemptions(t *testing.T, env *SimulatedEnv, count int) []uint64 {
	user := common.RandEthAddress()
	assert.NoError(t, env.AssetA.Issue(user, big.NewInt(int64(count)*10_000)))

	indices := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		_, err := env.Engine.Unwrap(
			user, "", SimAssetA, big.NewInt(10_000),
			testScriptP2WPKH, agreement.ScriptTypeP2WPKH, 0, nil, nil)
		assert.NoError(t, err)

		ev := <-env.Engine.Notifier().RedemptionCreatedEvents()
		indices = append(indices, ev.Index)
	}
	return indices
}

func settlementProof() *agreement.DepositProof {
	return &agreement.DepositProof{
		TxId:   common.RandBytes32(),
		Height: 200,
	}
}

func TestConfirmBatch(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 3)
	proof := settlementProof()

	assert.NoError(t, env.Engine.ConfirmRedemptions(env.Custodian, proof, indices))

	for _, idx := range indices {
		r, ok, err := env.StateDB.GetRedemption(idx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, r.Processed)
		assert.Equal(t, proof.TxId, r.ConfirmTxId)
		assert.Equal(t, r.BurnedAmount, r.SettledAmount)

		ev := <-env.Engine.Notifier().RedemptionConfirmedEvents()
		assert.Equal(t, idx, ev.Index)
		assert.Equal(t, proof.TxId, ev.ConfirmTxId)
	}
}

func TestConfirmDuplicateInBatchAbortsWhole(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	appendRedemptions(t, env, 5)

	err := env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), []uint64{2, 5, 5})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	// whole-batch abort: not even the clean indices were touched
	for _, idx := range []uint64{2, 5} {
		r, ok, err := env.StateDB.GetRedemption(idx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, r.Processed)
	}
}

func TestConfirmTwice(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 1)

	assert.NoError(t, env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), indices))
	assert.ErrorIs(t,
		env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), indices),
		ErrAlreadyProcessed)
}

func TestConfirmUnknownIndex(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 1)

	err := env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), []uint64{indices[0], 42})
	assert.ErrorIs(t, err, ErrUnknownRedemption)

	// the known index stays untouched
	r, ok, err := env.StateDB.GetRedemption(indices[0])
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, r.Processed)
}

func TestConfirmUnauthorized(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 1)

	assert.ErrorIs(t,
		env.Engine.ConfirmRedemptions(common.RandEthAddress(), settlementProof(), indices),
		ErrUnauthorized)
	assert.ErrorIs(t,
		env.Engine.ConfirmRedemptions(env.Admin, settlementProof(), indices),
		ErrUnauthorized)
}

func TestConfirmRejectedProof(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 1)
	env.Verifier.Reject = true

	assert.ErrorIs(t,
		env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), indices),
		ErrInvalidProof)
}

func TestConfirmEmptyBatch(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	assert.ErrorIs(t,
		env.Engine.ConfirmRedemptions(env.Custodian, settlementProof(), nil),
		ErrValueMismatch)
}

func TestConfirmBelowRaisedFloor(t *testing.T) {
	env, close := newTestEnv(t)
	defer close()

	indices := appendRedemptions(t, env, 1)

	// moving the deposit floor forward must not strand settlements
	// proven at lower heights
	assert.NoError(t, env.Engine.RaiseProofFloor(env.Admin, 10_000))

	proof := settlementProof()
	proof.Height = 200
	assert.NoError(t, env.Engine.ConfirmRedemptions(env.Custodian, proof, indices))

	r, ok, err := env.StateDB.GetRedemption(indices[0])
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, r.Processed)
}
