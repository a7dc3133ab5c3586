package state

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)
	strZeroBytes20 = strings.Repeat("0", 40)

	// one row per external transaction id, the exactly-once record
	depositTable = `CREATE TABLE IF NOT EXISTS deposit (
		txId CHAR(64) PRIMARY KEY NOT NULL,
		used INTEGER NOT NULL DEFAULT 1,
		completed INTEGER NOT NULL DEFAULT 0,
		ledgerId INTEGER NOT NULL,
		appId INTEGER NOT NULL,
		assetId INTEGER NOT NULL,
		grossAmount BIGINT UNSIGNED NOT NULL,
		recipient CHAR(40) NOT NULL,
		referralId TEXT NOT NULL DEFAULT '',
		outputAsset INTEGER NOT NULL,
		bridgeFeeBps INTEGER NOT NULL,
		speedFlag INTEGER NOT NULL,
		CONSTRAINT chk_gross CHECK (grossAmount > 0),
		CONSTRAINT chk_txId CHECK (txId != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_recipient CHECK (recipient != '` + strZeroBytes20 + `')
	);`

	// append-only log; idx is the monotonically increasing counter
	redemptionTable = `CREATE TABLE IF NOT EXISTS redemption (
		idx INTEGER PRIMARY KEY AUTOINCREMENT,
		processed INTEGER NOT NULL DEFAULT 0,
		burnedAmount BIGINT UNSIGNED NOT NULL,
		settledAmount BIGINT UNSIGNED NOT NULL DEFAULT 0,
		appId INTEGER NOT NULL,
		requester CHAR(40) NOT NULL,
		destScript VARCHAR(90) NOT NULL,
		scriptType VARCHAR(10) NOT NULL,
		confirmTxId CHAR(64) NOT NULL DEFAULT '` + strZeroBytes32 + `',
		CONSTRAINT chk_burned CHECK (burnedAmount > 0),
		CONSTRAINT chk_destScript CHECK (destScript != '')
	);`

	// table stores key-value pairs. Both key and value are a 32-byte
	// hex string without prefix '0x'
	kvTable = `CREATE TABLE IF NOT EXISTS kv (
		key CHAR(64) PRIMARY KEY NOT NULL,
		value CHAR(64) NOT NULL
	);`

	depositParamList = ` txId, used, completed, ledgerId, appId, assetId, grossAmount,
		recipient, referralId, outputAsset, bridgeFeeBps, speedFlag `

	redemptionParamList = ` processed, burnedAmount, settledAmount, appId, requester,
		destScript, scriptType, confirmTxId `
)
