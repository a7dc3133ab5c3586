package state

import (
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/common"
)

func RandDeposit(completed bool) *Deposit {
	return &Deposit{
		TxId:         common.RandBytes32(),
		Used:         true,
		Completed:    completed,
		LedgerId:     1,
		AppId:        0,
		AssetId:      1,
		GrossAmount:  big.NewInt(100_000),
		Recipient:    common.RandEthAddress(),
		ReferralId:   "",
		OutputAsset:  1,
		BridgeFeeBps: 0,
		SpeedFlag:    false,
	}
}

func RandRedemption(processed bool) *Redemption {
	r := &Redemption{
		Processed:    processed,
		BurnedAmount: big.NewInt(99_500),
		AppId:        0,
		Requester:    common.RandEthAddress(),
		DestScript:   "bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080",
		ScriptType:   agreement.ScriptTypeP2WPKH,
	}
	if processed {
		r.ConfirmTxId = common.RandBytes32()
		r.SettledAmount = big.NewInt(99_500)
	}
	return r
}

func getMemoryDB() *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal(err)
	}
	return db
}
