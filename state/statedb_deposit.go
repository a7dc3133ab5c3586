package state

import (
	"database/sql"
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	ErrDepositExists       = errors.New("deposit already recorded for tx id")
	ErrDepositNotFound     = errors.New("deposit not found")
	ErrDepositCompletedSet = errors.New("deposit already marked completed")
)

// InsertDeposit records a freshly verified deposit. The primary key on
// txId is the exactly-once anchor: a second insert for the same tx id
// fails.
func (st *StateDB) InsertDeposit(d *Deposit) error {
	ok, err := st.HasDeposit(d.TxId)
	if err != nil {
		return err
	}
	if ok {
		return ErrDepositExists
	}

	query := `INSERT INTO deposit (` + depositParamList + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	s := (&sqlDeposit{}).encode(d)
	_, err = stmt.Exec(
		s.TxId,
		s.Used,
		s.Completed,
		s.LedgerId,
		s.AppId,
		s.AssetId,
		s.GrossAmount,
		s.Recipient,
		s.ReferralId,
		s.OutputAsset,
		s.BridgeFeeBps,
		s.SpeedFlag,
	)
	return err
}

func (st *StateDB) HasDeposit(txId ethcommon.Hash) (bool, error) {
	query := `SELECT 1 FROM deposit WHERE txId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, err
	}

	var one int
	if err := stmt.QueryRow(txId.String()[2:]).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (st *StateDB) GetDeposit(txId ethcommon.Hash) (*Deposit, bool, error) {
	query := `SELECT` + depositParamList + `FROM deposit WHERE txId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var s sqlDeposit
	err = stmt.QueryRow(txId.String()[2:]).Scan(
		&s.TxId,
		&s.Used,
		&s.Completed,
		&s.LedgerId,
		&s.AppId,
		&s.AssetId,
		&s.GrossAmount,
		&s.Recipient,
		&s.ReferralId,
		&s.OutputAsset,
		&s.BridgeFeeBps,
		&s.SpeedFlag,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	return s.decode(), true, nil
}

// SetDepositCompleted flips Completed false→true. Fails if the row is
// missing or already completed, so the flip happens at most once.
func (st *StateDB) SetDepositCompleted(txId ethcommon.Hash) error {
	query := `UPDATE deposit SET completed = 1 WHERE txId = ? AND completed = 0`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(txId.String()[2:])
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		ok, err := st.HasDeposit(txId)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDepositNotFound
		}
		return ErrDepositCompletedSet
	}
	return nil
}

// DeleteDeposit removes a deposit row, releasing its tx id for a
// later admission. Only valid while the row is not completed: the
// wrap flow uses it to unwind an admission whose issuance never
// happened.
func (st *StateDB) DeleteDeposit(txId ethcommon.Hash) error {
	query := `DELETE FROM deposit WHERE txId = ? AND completed = 0`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(txId.String()[2:])
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		ok, err := st.HasDeposit(txId)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDepositNotFound
		}
		return ErrDepositCompletedSet
	}
	return nil
}

// GetPendingDeposits lists deposits awaiting delivery or refund.
func (st *StateDB) GetPendingDeposits() ([]*Deposit, error) {
	query := `SELECT` + depositParamList + `FROM deposit WHERE completed = 0`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var deposits []*Deposit
	for rows.Next() {
		var s sqlDeposit
		if err := rows.Scan(
			&s.TxId,
			&s.Used,
			&s.Completed,
			&s.LedgerId,
			&s.AppId,
			&s.AssetId,
			&s.GrossAmount,
			&s.Recipient,
			&s.ReferralId,
			&s.OutputAsset,
			&s.BridgeFeeBps,
			&s.SpeedFlag,
		); err != nil {
			return nil, err
		}
		deposits = append(deposits, s.decode())
	}
	return deposits, rows.Err()
}
