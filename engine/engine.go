// The wrap/unwrap engine. It coordinates four external collaborators
// (proof gate, exchange executor, settlement relay, reward delegate)
// around the deposit and redemption ledgers it exclusively owns.
//
// Every public entry point is one indivisible unit of work: the call
// depth guard admits one unit at a time, collaborator calls resolve
// synchronously inside it, and ledger mutations happen only after the
// checks that could abort the unit.

package engine

import (
	"sync/atomic"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/wrap-go/agreement"
	"github.com/TEENet-io/wrap-go/assetregistry"
	"github.com/TEENet-io/wrap-go/dispatcher"
	"github.com/TEENet-io/wrap-go/proofgate"
	"github.com/TEENet-io/wrap-go/state"
)

type Engine struct {
	cfg     *Config
	statedb *state.StateDB

	registry *assetregistry.Registry
	gate     *proofgate.Gate
	executor agreement.ExchangeExecutor
	builder  *dispatcher.Builder
	endpoint agreement.SettlementDispatcher

	fees         FeeConfig
	roles        Roles
	treasury     ethcommon.Address
	rewardTarget PayoutTarget
	thirdParties map[string]ThirdParty
	destAssets   map[destKey]string

	notifier  *Notifier
	callDepth int32
}

func New(
	cfg *Config,
	statedb *state.StateDB,
	registry *assetregistry.Registry,
	gate *proofgate.Gate,
	executor agreement.ExchangeExecutor,
	builder *dispatcher.Builder,
	endpoint agreement.SettlementDispatcher,
) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:          cfg,
		statedb:      statedb,
		registry:     registry,
		gate:         gate,
		executor:     executor,
		builder:      builder,
		endpoint:     endpoint,
		fees:         cfg.Fees,
		roles:        cfg.Roles,
		treasury:     cfg.Treasury,
		rewardTarget: PayoutTarget{Account: cfg.Operator},
		thirdParties: make(map[string]ThirdParty),
		destAssets:   make(map[destKey]string),
		notifier:     NewNotifier(cfg.ChannelSize),
	}, nil
}

// Notifier exposes the published notification channels.
func (e *Engine) Notifier() *Notifier {
	return e.notifier
}

// StateDB exposes the ledgers read-only (reporter, ops tooling).
func (e *Engine) StateDB() *state.StateDB {
	return e.statedb
}

// enter admits one unit of work. A nested invocation from within a
// collaborator call (or any overlapping admission) bumps the depth
// above one and is rejected; work is totally ordered, there is no
// parallel execution model.
func (e *Engine) enter() error {
	if atomic.AddInt32(&e.callDepth, 1) > 1 {
		atomic.AddInt32(&e.callDepth, -1)
		return ErrReentrantCall
	}
	return nil
}

func (e *Engine) leave() {
	atomic.AddInt32(&e.callDepth, -1)
}

// referralOf resolves a referral id to its fee percentage and payout
// account. Unknown or empty ids carry no referral share.
func (e *Engine) referralOf(referralId string) (uint32, ethcommon.Address) {
	if referralId == "" {
		return 0, ethcommon.Address{}
	}
	tp, ok := e.thirdParties[referralId]
	if !ok {
		return 0, ethcommon.Address{}
	}
	return tp.FeeBps, tp.Payout
}

func (e *Engine) isAdmin(caller ethcommon.Address) bool {
	return caller == e.roles.Admin
}

func (e *Engine) isCustodian(caller ethcommon.Address) bool {
	return caller == e.roles.Custodian
}

// mayRefund: the admin and the custodian admin hold the refund
// capability.
func (e *Engine) mayRefund(caller ethcommon.Address) bool {
	return caller == e.roles.Admin || caller == e.roles.CustodianAdmin
}
