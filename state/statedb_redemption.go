package state

import (
	"database/sql"
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	ErrRedemptionNotFound     = errors.New("redemption not found")
	ErrRedemptionProcessedSet = errors.New("redemption already marked processed")
)

// AppendRedemption appends to the redemption log and returns the
// assigned index. Indices are assigned by sqlite AUTOINCREMENT and
// strictly increase, starting at 1.
func (st *StateDB) AppendRedemption(r *Redemption) (uint64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	query := `INSERT INTO redemption (` + redemptionParamList + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	s := (&sqlRedemption{}).encode(r)
	res, err := stmt.Exec(
		s.Processed,
		s.BurnedAmount,
		s.SettledAmount,
		s.AppId,
		s.Requester,
		s.DestScript,
		s.ScriptType,
		s.ConfirmTxId,
	)
	if err != nil {
		return 0, err
	}

	idx, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.Index = uint64(idx)
	return r.Index, nil
}

func (st *StateDB) GetRedemption(idx uint64) (*Redemption, bool, error) {
	query := `SELECT idx,` + redemptionParamList + `FROM redemption WHERE idx = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var s sqlRedemption
	err = stmt.QueryRow(idx).Scan(
		&s.Idx,
		&s.Processed,
		&s.BurnedAmount,
		&s.SettledAmount,
		&s.AppId,
		&s.Requester,
		&s.DestScript,
		&s.ScriptType,
		&s.ConfirmTxId,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	return s.decode(), true, nil
}

// SetRedemptionProcessed flips Processed false→true and records the
// confirming transaction and the settled amount. At most once per
// index.
func (st *StateDB) SetRedemptionProcessed(idx uint64, confirmTxId ethcommon.Hash, settledAmount uint64) error {
	query := `UPDATE redemption SET processed = 1, confirmTxId = ?, settledAmount = ? WHERE idx = ? AND processed = 0`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(confirmTxId.String()[2:], settledAmount, idx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, ok, err := st.GetRedemption(idx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRedemptionNotFound
		}
		return ErrRedemptionProcessedSet
	}
	return nil
}

func (st *StateDB) GetRedemptionsByProcessed(processed bool) ([]*Redemption, error) {
	query := `SELECT idx,` + redemptionParamList + `FROM redemption WHERE processed = ? ORDER BY idx ASC`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(boolToInt(processed))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var redemptions []*Redemption
	for rows.Next() {
		var s sqlRedemption
		if err := rows.Scan(
			&s.Idx,
			&s.Processed,
			&s.BurnedAmount,
			&s.SettledAmount,
			&s.AppId,
			&s.Requester,
			&s.DestScript,
			&s.ScriptType,
			&s.ConfirmTxId,
		); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, s.decode())
	}
	return redemptions, rows.Err()
}

func (st *StateDB) CountRedemptions() (uint64, error) {
	query := `SELECT COUNT(*) FROM redemption`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	var n uint64
	if err := stmt.QueryRow().Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
