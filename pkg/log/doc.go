/*
Package log provides structured logging for meshrun using zerolog.

It wraps zerolog to give every worker loop (bootstrap, command provider,
query provider, event processor, submit client) a component-tagged logger,
with a configurable level and JSON-or-console output.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	cmdLog := log.WithComponent("command-provider")
	cmdLog.Info().Str("client_id", clientID).Msg("subscribed")

	log.WithAggregateID(aggregateID).
		With().Str("command", cmd.Name).Logger().
		Error().Err(err).Msg("command handler failed")

# Context loggers

WithComponent, WithClientID, WithAggregateID and WithRequestID each return a
zerolog.Logger with one additional field, meant to be chained:

	log.WithComponent("event-processor").With().
		Int64("token", token).Logger().
		Debug().Msg("advanced token")

# Log levels

Debug is for development; Info is the default production level; Warn flags
conditions worth a human's attention (a stalled reconnect, a skipped event);
Error marks a failed command, query or append that was still surfaced to
the caller over the wire. Fatal should only be used by the embedding
application's own startup path, never by meshrun's worker loops, since a
failed command or event handler is reported on the wire or halts the one
worker affected, not the whole process.
*/
package log
