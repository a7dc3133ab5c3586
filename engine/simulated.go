package engine

import (
	"database/sql"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/assetregistry"
	"github.com/TEENet-io/wrap-go/common"
	"github.com/TEENet-io/wrap-go/dispatcher"
	"github.com/TEENet-io/wrap-go/exchange"
	"github.com/TEENet-io/wrap-go/proofgate"
	"github.com/TEENet-io/wrap-go/state"
)

// Well-known simulated asset ids.
const (
	SimAssetA agreement.AssetID = 1
	SimAssetB agreement.AssetID = 2
)

// SimulatedEnv wires an engine to fully simulated collaborators over
// an in-memory ledger. Used by tests and by the server's simulated
// mode.
type SimulatedEnv struct {
	Engine   *Engine
	Cfg      *Config
	StateDB  *state.StateDB
	Registry *assetregistry.Registry
	Verifier *proofgate.SimulatedVerifier
	Executor *exchange.SimulatedExecutor
	Endpoint *dispatcher.SimulatedDispatcher

	AssetA *assetregistry.SimulatedAsset
	AssetB *assetregistry.SimulatedAsset

	Admin          ethcommon.Address
	Custodian      ethcommon.Address
	CustodianAdmin ethcommon.Address
	Treasury       ethcommon.Address
	Operator       ethcommon.Address
}

// NewSimulatedEnv builds the default environment: two registered assets,
// protocol fee 1%, operator fee 0.5%, local ledger 1.
func NewSimulatedEnv() (*SimulatedEnv, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	statedb, err := state.NewStateDB(db)
	if err != nil {
		return nil, err
	}

	env := &SimulatedEnv{
		StateDB:        statedb,
		Registry:       assetregistry.NewRegistry(),
		Verifier:       proofgate.NewSimulatedVerifier(),
		Endpoint:       dispatcher.NewSimulatedDispatcher(),
		AssetA:         assetregistry.NewSimulatedAsset("simA"),
		AssetB:         assetregistry.NewSimulatedAsset("simB"),
		Admin:          common.RandEthAddress(),
		Custodian:      common.RandEthAddress(),
		CustodianAdmin: common.RandEthAddress(),
		Treasury:       common.RandEthAddress(),
		Operator:       common.RandEthAddress(),
	}

	if err := env.Registry.Add(SimAssetA, env.AssetA); err != nil {
		return nil, err
	}
	if err := env.Registry.Add(SimAssetB, env.AssetB); err != nil {
		return nil, err
	}

	gate, err := proofgate.NewGate(env.Verifier, statedb, 0)
	if err != nil {
		return nil, err
	}

	env.Cfg = &Config{
		LocalLedger:   1,
		EngineAccount: common.RandEthAddress(),
		Treasury:      env.Treasury,
		Operator:      env.Operator,
		Roles: Roles{
			Admin:          env.Admin,
			Custodian:      env.Custodian,
			CustodianAdmin: env.CustodianAdmin,
		},
		Fees: FeeConfig{
			ProtocolBps: 100, // 1%
			OperatorBps: 50,  // 0.5%
		},
		RelayAdmin:    common.RandEthAddress(),
		BridgeAccount: common.RandEthAddress(),
		ChainParams:   &chaincfg.RegressionNetParams,
		ChannelSize:   16,
	}

	env.Executor = exchange.NewSimulatedExecutor(env.Registry, env.Cfg.EngineAccount)

	builder := dispatcher.NewBuilder(env.Cfg.RelayAdmin, dispatcher.DefaultWindow)
	eng, err := New(env.Cfg, statedb, env.Registry, gate, env.Executor, builder, env.Endpoint)
	if err != nil {
		return nil, err
	}
	env.Engine = eng

	return env, nil
}

// Close releases the in-memory ledger.
func (env *SimulatedEnv) Close() {
	env.StateDB.Close()
}

// RegisterDeposit registers fields with the simulated verifier and
// returns the matching proof bundle.
func (env *SimulatedEnv) RegisterDeposit(fields *agreement.DepositFields) *agreement.DepositProof {
	env.Verifier.RegisterDeposit(fields)
	return &agreement.DepositProof{
		TxId:   fields.TxId,
		Height: 100,
	}
}

// RandDestScript produces a valid regtest p2wpkh destination script.
func RandDestScript() string {
	hash := common.RandBytes(20)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, &chaincfg.RegressionNetParams)
	if err != nil {
		panic(err)
	}
	return addr.EncodeAddress()
}

// RandDepositFields produces deposit fields on asset A for the local
// ledger, no exchange.
func (env *SimulatedEnv) RandDepositFields(gross int64) *agreement.DepositFields {
	return &agreement.DepositFields{
		TxId:        common.RandBytes32(),
		LedgerId:    env.Cfg.LocalLedger,
		AppId:       0,
		AssetId:     SimAssetA,
		GrossAmount: big.NewInt(gross),
		Recipient:   common.RandEthAddress(),
		OutputAsset: SimAssetA,
	}
}
