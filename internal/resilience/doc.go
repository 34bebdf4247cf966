// Package resilience holds the fault tolerance building blocks used
// around external calls and the Postgres store: circuit breakers
// (circuitbreaker) and backoff retries (retry). The billing provider
// and letter generation clients combine both; the counter store uses
// the breaker alone so a dead database fails requests fast instead of
// stacking timeouts.
package resilience
