// Server = wrap engine + db/state + simulated collaborators + http reporter.
// All components are configured via a config file (strings!).
//
// The collaborators (proof verifier, exchange, settlement relay) run
// in simulated mode: real oracle/relay endpoints plug in behind the
// same agreement interfaces.

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/assetregistry"
	"github.com/TEENet-io/wrap-go/common"
	"github.com/TEENet-io/wrap-go/dispatcher"
	"github.com/TEENet-io/wrap-go/engine"
	"github.com/TEENet-io/wrap-go/exchange"
	"github.com/TEENet-io/wrap-go/proofgate"
	"github.com/TEENet-io/wrap-go/reporter"
	"github.com/TEENet-io/wrap-go/state"
)

const (
	// notification channel config
	CHANNEL_BUFFER_SIZE = 16
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type EngineServerConfig struct {
	// state side
	DbFilePath string // db file path

	// external chain side
	ChainNetwork      string // regtest, testnet, mainnet
	InitialProofFloor uint64 // replay-protection height floor to start from

	// engine side
	LocalLedger    uint32
	ProtocolFeeBps uint32
	OperatorFeeBps uint32

	// role / account identities (hex addresses)
	AdminAddr          string
	CustodianAddr      string
	CustodianAdminAddr string
	TreasuryAddr       string
	OperatorAddr       string
	RelayAdminAddr     string
	BridgeAccountAddr  string
	EngineAccountAddr  string

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// EngineServer holds the objects that consists of the wrap server.
type EngineServer struct {
	MyStateDB  *state.StateDB
	MyRegistry *assetregistry.Registry
	MyVerifier *proofgate.SimulatedVerifier
	MyExecutor *exchange.SimulatedExecutor
	MyEndpoint *dispatcher.SimulatedDispatcher
	MyEngine   *engine.Engine
	MyReporter *reporter.HttpReporter
}

// NewEngineServer creates a new wrap server.
// ctx is used for parental context to cancel the operation of the server.
// wg is used to wait for the goroutines inside the server (reporter,
// notification drain) to finish.
func NewEngineServer(esc *EngineServerConfig, ctx context.Context, wg *sync.WaitGroup) (*EngineServer, error) {
	// 1) Open the ledger database.
	sqlDB, err := sql.Open("sqlite3", esc.DbFilePath)
	if err != nil {
		logger.Fatalf("cannot open db file %s: %v", esc.DbFilePath, err)
		return nil, err
	}
	myStateDB, err := state.NewStateDB(sqlDB)
	if err != nil {
		logger.Fatalf("cannot create state db %v", err)
		return nil, err
	}

	// 2) Asset registry with the two simulated assets.
	myRegistry := assetregistry.NewRegistry()
	if err := myRegistry.Add(engine.SimAssetA, assetregistry.NewSimulatedAsset("wrapA")); err != nil {
		return nil, err
	}
	if err := myRegistry.Add(engine.SimAssetB, assetregistry.NewSimulatedAsset("wrapB")); err != nil {
		return nil, err
	}

	// 3) Proof gate over the simulated verifier, floor persisted in
	// the state db.
	myVerifier := proofgate.NewSimulatedVerifier()
	gate, err := proofgate.NewGate(myVerifier, myStateDB, esc.InitialProofFloor)
	if err != nil {
		logger.Fatalf("cannot create proof gate %v", err)
		return nil, err
	}

	// 4) Engine config from the text fields.
	cfg := &engine.Config{
		LocalLedger:   agreement.LedgerID(esc.LocalLedger),
		EngineAccount: ethcommon.HexToAddress(esc.EngineAccountAddr),
		Treasury:      ethcommon.HexToAddress(esc.TreasuryAddr),
		Operator:      ethcommon.HexToAddress(esc.OperatorAddr),
		Roles: engine.Roles{
			Admin:          ethcommon.HexToAddress(esc.AdminAddr),
			Custodian:      ethcommon.HexToAddress(esc.CustodianAddr),
			CustodianAdmin: ethcommon.HexToAddress(esc.CustodianAdminAddr),
		},
		Fees: engine.FeeConfig{
			ProtocolBps: esc.ProtocolFeeBps,
			OperatorBps: esc.OperatorFeeBps,
		},
		RelayAdmin:    ethcommon.HexToAddress(esc.RelayAdminAddr),
		BridgeAccount: ethcommon.HexToAddress(esc.BridgeAccountAddr),
		ChainParams:   common.NetworkParams(esc.ChainNetwork),
		ChannelSize:   CHANNEL_BUFFER_SIZE,
	}

	myExecutor := exchange.NewSimulatedExecutor(myRegistry, cfg.EngineAccount)
	myEndpoint := dispatcher.NewSimulatedDispatcher()
	builder := dispatcher.NewBuilder(cfg.RelayAdmin, dispatcher.DefaultWindow)

	myEngine, err := engine.New(cfg, myStateDB, myRegistry, gate, myExecutor, builder, myEndpoint)
	if err != nil {
		logger.Fatalf("cannot create engine %v", err)
		return nil, err
	}

	// 5) Http reporter over the ledgers.
	myReporter := reporter.NewHttpReporter(esc.HttpIp, esc.HttpPort, myStateDB)

	server := &EngineServer{
		MyStateDB:  myStateDB,
		MyRegistry: myRegistry,
		MyVerifier: myVerifier,
		MyExecutor: myExecutor,
		MyEndpoint: myEndpoint,
		MyEngine:   myEngine,
		MyReporter: myReporter,
	}

	// Reporter runs until the process dies.
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.MyReporter.Run()
	}()

	// Drain + log the engine notifications.
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.drainNotifications(ctx)
	}()

	return server, nil
}

// drainNotifications logs every published engine notification until
// the context dies.
func (s *EngineServer) drainNotifications(ctx context.Context) {
	n := s.MyEngine.Notifier()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.DepositCompletedEvents():
			logger.WithField("event", ev).Info("deposit completed")
		case ev := <-n.DepositFailedEvents():
			logger.WithField("event", ev).Warn("deposit failed, pending refund")
		case ev := <-n.RedemptionCreatedEvents():
			logger.WithField("event", ev).Info("redemption created")
		case ev := <-n.RedemptionConfirmedEvents():
			logger.WithField("event", ev).Info("redemption confirmed")
		case ev := <-n.RefundProcessedEvents():
			logger.WithField("event", ev).Info("refund processed")
		case ev := <-n.AssetAddedEvents():
			logger.WithField("event", ev).Info("asset added")
		case ev := <-n.AssetRemovedEvents():
			logger.WithField("event", ev).Info("asset removed")
		}
	}
}

// StartEngineServerAndWait starts the server and blocks until killed.
func StartEngineServerAndWait(esc *EngineServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // defense programing

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewEngineServer(esc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create wrap server: %v", err)
		return
	}

	// wait for all routines to finish (which is forever)
	wg.Wait()
}
