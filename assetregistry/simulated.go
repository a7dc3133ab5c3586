package assetregistry

import (
	"errors"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrTransferAmountInvalid = errors.New("transfer amount must be positive")
)

// SimulatedAsset is an in-memory wrapped asset. It backs tests and the
// simulated server mode; a production deployment binds real ledger
// capabilities instead.
type SimulatedAsset struct {
	Name string

	mu         sync.Mutex
	balances   map[ethcommon.Address]*big.Int
	allowances map[[2]ethcommon.Address]*big.Int // [owner, spender]
	supply     *big.Int
}

func NewSimulatedAsset(name string) *SimulatedAsset {
	return &SimulatedAsset{
		Name:       name,
		balances:   make(map[ethcommon.Address]*big.Int),
		allowances: make(map[[2]ethcommon.Address]*big.Int),
		supply:     big.NewInt(0),
	}
}

func (sa *SimulatedAsset) Issue(to ethcommon.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrTransferAmountInvalid
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.credit(to, amount)
	sa.supply.Add(sa.supply, amount)

	logger.WithFields(logger.Fields{
		"asset":  sa.Name,
		"to":     to.Hex(),
		"amount": amount,
	}).Debug("simulated asset issued")
	return nil
}

func (sa *SimulatedAsset) Redeem(from ethcommon.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrTransferAmountInvalid
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	if err := sa.debit(from, amount); err != nil {
		return err
	}
	sa.supply.Sub(sa.supply, amount)

	logger.WithFields(logger.Fields{
		"asset":  sa.Name,
		"from":   from.Hex(),
		"amount": amount,
	}).Debug("simulated asset redeemed")
	return nil
}

func (sa *SimulatedAsset) Transfer(from, to ethcommon.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrTransferAmountInvalid
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	if err := sa.debit(from, amount); err != nil {
		return err
	}
	sa.credit(to, amount)
	return nil
}

func (sa *SimulatedAsset) Approve(owner, spender ethcommon.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrTransferAmountInvalid
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.allowances[[2]ethcommon.Address{owner, spender}] = new(big.Int).Set(amount)
	return nil
}

func (sa *SimulatedAsset) BalanceOf(account ethcommon.Address) *big.Int {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if b, ok := sa.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (sa *SimulatedAsset) Allowance(owner, spender ethcommon.Address) *big.Int {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if a, ok := sa.allowances[[2]ethcommon.Address{owner, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return big.NewInt(0)
}

// TotalSupply reports the issued minus redeemed amount. Handy for
// conservation checks in tests.
func (sa *SimulatedAsset) TotalSupply() *big.Int {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	return new(big.Int).Set(sa.supply)
}

// callers must hold sa.mu
func (sa *SimulatedAsset) credit(account ethcommon.Address, amount *big.Int) {
	if b, ok := sa.balances[account]; ok {
		b.Add(b, amount)
		return
	}
	sa.balances[account] = new(big.Int).Set(amount)
}

// callers must hold sa.mu
func (sa *SimulatedAsset) debit(account ethcommon.Address, amount *big.Int) error {
	b, ok := sa.balances[account]
	if !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}
