/*
Package metrics exposes the runtime's Prometheus collectors.

It registers gauges and counters for each worker loop (bootstrap,
command provider, query provider, event processor, submit client) at
package init and serves them with promhttp from Handler. The Timer
helper times a single operation and reports it to a histogram or
histogram vec.

# Usage

	mux.Handle("/metrics", metrics.Handler())

	t := metrics.NewTimer()
	err := dispatch(cmd)
	t.ObserveDurationVec(metrics.CommandHandleDuration, cmd.Name)

Counters that track an outcome (commands handled, queries submitted,
events processed) carry an "outcome" label rather than a separate
success/failure metric, so a single PromQL rate() query covers both.
*/
package metrics
