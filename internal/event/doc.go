// Package event provides a synchronous publish/subscribe bus.
//
// Components that would otherwise share state through globals publish typed
// events instead. Events are delivered on the publisher's goroutine in
// priority order (lower values first); subscriptions registered with the
// same priority run in registration order.
//
//	bus := event.NewBus()
//	sub, _ := event.Subscribe(bus, "layer.selected",
//		func(ctx context.Context, e event.Event[LayerSelected]) error {
//			...
//		})
//	defer sub.Cancel()
//
//	bus.Publish(ctx, event.NewEvent("layer.selected", LayerSelected{ID: id}, "store"))
//
// A handler that panics is isolated: the panic is recovered, reported as a
// *PanicError and the remaining handlers still run.
package event
