package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/wrap-go/agreement"
)

func newTestStateDB(t *testing.T) (*StateDB, func()) {
	sqlDB := getMemoryDB()

	statedb, err := NewStateDB(sqlDB)
	assert.NoError(t, err)

	return statedb, func() {
		statedb.Close()
		sqlDB.Close()
	}
}

func TestInsertAndGetDeposit(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(false)
	assert.NoError(t, statedb.InsertDeposit(d))

	ok, err := statedb.HasDeposit(d.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := statedb.GetDeposit(d.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestInsertDepositTwice(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(false)
	assert.NoError(t, statedb.InsertDeposit(d))
	assert.ErrorIs(t, statedb.InsertDeposit(d), ErrDepositExists)
}

func TestGetDepositMissing(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(false)
	_, ok, err := statedb.GetDeposit(d.TxId)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSetDepositCompletedOnce(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(false)
	assert.NoError(t, statedb.InsertDeposit(d))

	assert.NoError(t, statedb.SetDepositCompleted(d.TxId))

	got, _, err := statedb.GetDeposit(d.TxId)
	assert.NoError(t, err)
	assert.True(t, got.Completed)

	// the flip happens at most once
	assert.ErrorIs(t, statedb.SetDepositCompleted(d.TxId), ErrDepositCompletedSet)

	// unknown tx id
	other := RandDeposit(false)
	assert.ErrorIs(t, statedb.SetDepositCompleted(other.TxId), ErrDepositNotFound)
}

func TestGetPendingDeposits(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	pending := RandDeposit(false)
	done := RandDeposit(true)
	assert.NoError(t, statedb.InsertDeposit(pending))
	assert.NoError(t, statedb.InsertDeposit(done))

	got, err := statedb.GetPendingDeposits()
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, pending.TxId, got[0].TxId)
}

func TestDeleteDeposit(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(false)
	assert.NoError(t, statedb.InsertDeposit(d))
	assert.NoError(t, statedb.DeleteDeposit(d.TxId))

	// the tx id is claimable again
	ok, err := statedb.HasDeposit(d.TxId)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, statedb.InsertDeposit(d))

	// unknown tx id
	other := RandDeposit(false)
	assert.ErrorIs(t, statedb.DeleteDeposit(other.TxId), ErrDepositNotFound)
}

func TestDeleteDepositCompleted(t *testing.T) {
	statedb, close := newTestStateDB(t)
	defer close()

	d := RandDeposit(true)
	assert.NoError(t, statedb.InsertDeposit(d))

	// a completed row never leaves the ledger
	assert.ErrorIs(t, statedb.DeleteDeposit(d.TxId), ErrDepositCompletedSet)

	ok, err := statedb.HasDeposit(d.TxId)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateDepositAmountBounds(t *testing.T) {
	d := RandDeposit(false)
	fields := &agreement.DepositFields{
		TxId:        d.TxId,
		LedgerId:    d.LedgerId,
		AssetId:     d.AssetId,
		Recipient:   d.Recipient,
		OutputAsset: d.OutputAsset,
	}

	// amounts above 64 bits would truncate in the ledger encoding
	fields.GrossAmount = new(big.Int).Lsh(big.NewInt(1), 64)
	_, err := CreateDepositFromFields(fields)
	assert.ErrorIs(t, err, ErrorAmountInvalid)

	fields.GrossAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	_, err = CreateDepositFromFields(fields)
	assert.NoError(t, err)
}
