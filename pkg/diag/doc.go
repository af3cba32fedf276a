/*
Package diag is a small pub-sub bus the worker loops use to surface
lifecycle notifications to an embedding application: subscriptions
opening and closing, commands and queries succeeding or failing,
events processed, the event processor halting.

# Usage

	bus := diag.NewBus()
	bus.Start()
	defer bus.Stop()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	go func() {
		for n := range sub {
			log.Info().Str("kind", string(n.Kind)).Str("subject", n.Subject).Msg(n.Message)
		}
	}()

Publish never blocks the caller on a slow subscriber; a full
subscriber buffer simply drops that one notification, which is
acceptable here since diag is an observability aid, not a delivery
guarantee.
*/
package diag
