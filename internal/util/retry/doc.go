// Package retry retries transient failures with exponential backoff.
//
// [Do] is used around single remote calls whose failure is worth a second
// try, such as identity token requests. Convergence waits do not use it;
// they have their own cadence in the waiter package.
package retry
