/*
Package persistunit wires a persistence runtime into a dependency-injection
container.

# Overview

A persistence unit is a named, independently configured connection context
to a data store. Building its Factory is expensive (schema setup, pool
warm-up), so the Registry builds each unit lazily, at most once, and shares
the result with every caller:

	reg := persistunit.NewRegistry(builder,
	    persistunit.WithLogger(logger),
	    persistunit.WithMetrics(observability.NewMetricsRecorder()),
	)
	defer reg.Shutdown()

	f, err := reg.Resolve(ctx, "orders-db") // builds on first call
	sess, release, err := reg.CreateDerivedResource(ctx, "orders-db")
	defer release()

The Builder is pluggable. The sqlunit package provides one backed by
database/sql connection pools published in a naming.Directory by the bundle
package.

# Concurrency

Concurrent first callers for a unit serialize on the registry lock and all
receive the same Factory. While a build is in flight, first-time resolution
of any other unit waits as well; builds are rare and happen during warm-up.
Already-built units are served under a read lock.

A failed build records nothing. The next Resolve for that unit retries.

# Shutdown

Shutdown closes every built factory exactly once and is terminal: later
Resolve calls return ErrRegistryClosed and later Shutdown calls are no-ops.

# Injection

Services adapts the registry to a container's injection points. An
InjectionPoint only has to report a unit name; see UnitName for a fixed name
and the descriptor package for JSON metadata.
*/
package persistunit
