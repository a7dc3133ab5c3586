package engine

import (
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wrap-go/agreement"
)

// Notifier publishes one buffered channel per notification kind.
// Publishing never blocks a unit of work: when no consumer keeps up,
// the notification is dropped with a warning. Consumers that need a
// complete history read the ledgers instead.
type Notifier struct {
	depositCompletedCh    chan *agreement.DepositCompletedEvent
	depositFailedCh       chan *agreement.DepositFailedEvent
	redemptionCreatedCh   chan *agreement.RedemptionCreatedEvent
	redemptionConfirmedCh chan *agreement.RedemptionConfirmedEvent
	refundProcessedCh     chan *agreement.RefundProcessedEvent
	assetAddedCh          chan *agreement.AssetAddedEvent
	assetRemovedCh        chan *agreement.AssetRemovedEvent
}

func NewNotifier(size int) *Notifier {
	return &Notifier{
		depositCompletedCh:    make(chan *agreement.DepositCompletedEvent, size),
		depositFailedCh:       make(chan *agreement.DepositFailedEvent, size),
		redemptionCreatedCh:   make(chan *agreement.RedemptionCreatedEvent, size),
		redemptionConfirmedCh: make(chan *agreement.RedemptionConfirmedEvent, size),
		refundProcessedCh:     make(chan *agreement.RefundProcessedEvent, size),
		assetAddedCh:          make(chan *agreement.AssetAddedEvent, size),
		assetRemovedCh:        make(chan *agreement.AssetRemovedEvent, size),
	}
}

func (n *Notifier) DepositCompletedEvents() <-chan *agreement.DepositCompletedEvent {
	return n.depositCompletedCh
}

func (n *Notifier) DepositFailedEvents() <-chan *agreement.DepositFailedEvent {
	return n.depositFailedCh
}

func (n *Notifier) RedemptionCreatedEvents() <-chan *agreement.RedemptionCreatedEvent {
	return n.redemptionCreatedCh
}

func (n *Notifier) RedemptionConfirmedEvents() <-chan *agreement.RedemptionConfirmedEvent {
	return n.redemptionConfirmedCh
}

func (n *Notifier) RefundProcessedEvents() <-chan *agreement.RefundProcessedEvent {
	return n.refundProcessedCh
}

func (n *Notifier) AssetAddedEvents() <-chan *agreement.AssetAddedEvent {
	return n.assetAddedCh
}

func (n *Notifier) AssetRemovedEvents() <-chan *agreement.AssetRemovedEvent {
	return n.assetRemovedCh
}

func (n *Notifier) depositCompleted(ev *agreement.DepositCompletedEvent) {
	select {
	case n.depositCompletedCh <- ev:
	default:
		warnDropped("deposit-completed", ev)
	}
}

func (n *Notifier) depositFailed(ev *agreement.DepositFailedEvent) {
	select {
	case n.depositFailedCh <- ev:
	default:
		warnDropped("deposit-failed", ev)
	}
}

func (n *Notifier) redemptionCreated(ev *agreement.RedemptionCreatedEvent) {
	select {
	case n.redemptionCreatedCh <- ev:
	default:
		warnDropped("redemption-created", ev)
	}
}

func (n *Notifier) redemptionConfirmed(ev *agreement.RedemptionConfirmedEvent) {
	select {
	case n.redemptionConfirmedCh <- ev:
	default:
		warnDropped("redemption-confirmed", ev)
	}
}

func (n *Notifier) refundProcessed(ev *agreement.RefundProcessedEvent) {
	select {
	case n.refundProcessedCh <- ev:
	default:
		warnDropped("refund-processed", ev)
	}
}

func (n *Notifier) assetAdded(ev *agreement.AssetAddedEvent) {
	select {
	case n.assetAddedCh <- ev:
	default:
		warnDropped("asset-added", ev)
	}
}

func (n *Notifier) assetRemoved(ev *agreement.AssetRemovedEvent) {
	select {
	case n.assetRemovedCh <- ev:
	default:
		warnDropped("asset-removed", ev)
	}
}

func warnDropped(kind string, ev interface{}) {
	logger.WithFields(logger.Fields{
		"kind":  kind,
		"event": ev,
	}).Warn("notification dropped, no consumer keeping up")
}
