// Package waiter polls remote resources until they converge.
//
// Poll is the generic loop: fetch a snapshot, test it against a done and a
// failed predicate, sleep, repeat. StackWaiter, ProvisionStateWaiter and
// IntrospectionWaiter specialise it for orchestration stacks, bare metal
// provision states and hardware introspection.
//
// Running out of attempts is reported as the TimedOut outcome, not as an
// error. Errors are reserved for failing remote calls, which are returned
// unchanged, and for cancellation of the context, which is reported as
// both the Canceled outcome and an error matching deployerr.ErrCanceled.
package waiter
