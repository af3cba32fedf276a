/*
Package meshrun is a client runtime for a mesh broker that routes
commands and queries to event-sourced aggregates and streams the
resulting events to durable consumers.

It is built around four worker kinds, each serving one side of the
broker's bidirectional streams:

  - CommandProvider replays an aggregate's event log into a projection,
    dispatches the matching command handler, appends any events the
    handler emits with optimistic sequencing, and replies.
  - QueryProvider dispatches queries against a handler registry and
    sends one response per query, followed by a completion marker.
  - EventProcessor streams events since a durable tracking token,
    dispatches by event type, and persists the token only after a
    handler succeeds; a handler failure halts the processor without
    advancing it.
  - SubmitClient is the opposite direction: send a command or query to
    another service and collect its response(s).

Handlers of all three kinds are registered with the generic Registry
type via InsertVoid, InsertWithOutput, and InsertWithMappedOutput, and
aggregates additionally register sourcing handlers via InsertSourcing
on an AggregateDefinition.

# Usage

	handle, err := meshrun.WaitForServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	def := meshrun.NewAggregateDefinition("order", func() orderProjection { return orderProjection{} })
	meshrun.InsertSourcing(def.Sourcing, "order.created", meshrun.JSONDecoder[orderCreated](), applyCreated)
	meshrun.InsertWithOutput(def.Commands, "order.create", meshrun.JSONDecoder[createOrder](), handleCreate)

	provider := meshrun.NewCommandProvider(handle, cfg, def, bus)
	return provider.Run(ctx)

Every worker's Run blocks until ctx is canceled or the broker closes
its stream; callers that want resume-on-disconnect wrap Run in their
own retry loop, since this package does not retry on their behalf
beyond the initial connect poll in WaitForServer.

Flow control, wire encoding, and the command/query/event registries
are documented on their own types; see Config for the knobs available
at construction time.
*/
package meshrun
