package chainstore

import (
	"github.com/embernet/emberd/domain/model"
)

// SubscribeToTipChanges registers a new tip-change subscriber. The
// subscription's channel holds at most the latest undelivered notification.
func (cs *ChainStore) SubscribeToTipChanges() *model.TipChangeSubscription {
	cs.subscribersMutex.Lock()
	defer cs.subscribersMutex.Unlock()

	subscription := &model.TipChangeSubscription{
		C: make(chan *model.TipChangeNotification, 1),
	}
	cs.subscribers[subscription] = struct{}{}
	return subscription
}

// UnsubscribeFromTipChanges removes a subscriber registered with
// SubscribeToTipChanges. Unsubscribing twice is a no-op.
func (cs *ChainStore) UnsubscribeFromTipChanges(subscription *model.TipChangeSubscription) {
	cs.subscribersMutex.Lock()
	defer cs.subscribersMutex.Unlock()

	delete(cs.subscribers, subscription)
}

// notifyTipChanged broadcasts a tip change to all subscribers. Sends never
// block: a subscriber that has not consumed its pending notification is
// already signaled, and a newer notification carries no extra information
// for it.
func (cs *ChainStore) notifyTipChanged(oldTip *model.DomainHash, newTip *model.DomainHash) {
	cs.subscribersMutex.Lock()
	defer cs.subscribersMutex.Unlock()

	notification := &model.TipChangeNotification{
		OldTip: oldTip,
		NewTip: newTip,
	}
	for subscription := range cs.subscribers {
		select {
		case subscription.C <- notification:
		default:
		}
	}
}
