// The proof gate fronts the external proof verifier. It enforces the
// replay-protection height floor: any proof referencing a height below
// the floor is rejected before the verifier is even consulted, and the
// floor only ever moves forward. The floor survives restarts through a
// FloorStore.

package proofgate

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
)

var (
	ErrBelowHeightFloor = errors.New("proof height below the configured floor")
	ErrFloorOnlyForward = errors.New("height floor only moves forward")
	ErrNoVerifier       = errors.New("no inner proof verifier configured")
)

// FloorStore persists the height floor. Implemented by state.StateDB
// through its keyed-value table.
type FloorStore interface {
	GetProofHeightFloor() (uint64, bool, error)
	SetProofHeightFloor(height uint64) error
}

type Gate struct {
	inner agreement.ProofVerifier
	store FloorStore
	floor uint64
}

// NewGate loads the persisted floor if one exists, otherwise starts
// from the configured one (and persists it).
func NewGate(inner agreement.ProofVerifier, store FloorStore, initialFloor uint64) (*Gate, error) {
	if inner == nil {
		return nil, ErrNoVerifier
	}

	g := &Gate{inner: inner, store: store, floor: initialFloor}

	if store != nil {
		stored, ok, err := store.GetProofHeightFloor()
		if err != nil {
			return nil, err
		}
		if ok && stored > g.floor {
			g.floor = stored
		}
		if err := store.SetProofHeightFloor(g.floor); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Gate) Floor() uint64 {
	return g.floor
}

// RaiseFloor moves the floor forward. Lowering it is refused.
func (g *Gate) RaiseFloor(height uint64) error {
	if height < g.floor {
		return fmt.Errorf("%w: current=%d, requested=%d", ErrFloorOnlyForward, g.floor, height)
	}
	if height == g.floor {
		return nil
	}

	old := g.floor
	g.floor = height
	if g.store != nil {
		if err := g.store.SetProofHeightFloor(height); err != nil {
			g.floor = old
			return err
		}
	}

	logger.WithFields(logger.Fields{
		"before": old,
		"after":  height,
	}).Info("proof height floor raised")
	return nil
}

func (g *Gate) Verify(proof *agreement.DepositProof) (*agreement.DepositFields, error) {
	if err := g.checkFloor(proof); err != nil {
		return nil, err
	}
	return g.inner.Verify(proof)
}

// VerifyInclusion checks inclusion only. The height floor does not
// apply here: it replay-protects deposit admissions, and a settlement
// confirmation must stay provable however far the floor has moved
// since the redemption was created.
func (g *Gate) VerifyInclusion(proof *agreement.DepositProof) error {
	return g.inner.VerifyInclusion(proof)
}

func (g *Gate) checkFloor(proof *agreement.DepositProof) error {
	if proof.Height < g.floor {
		return fmt.Errorf("%w: height=%d, floor=%d", ErrBelowHeightFloor, proof.Height, g.floor)
	}
	return nil
}
