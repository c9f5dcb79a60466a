/*
Package resilience provides circuit breakers for inference backends.

A breaker opens after FailureThreshold consecutive failures and rejects calls
with ErrCircuitOpen until Cooldown elapses. It then admits a single trial call: a
success closes the circuit, a failure reopens it.

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                             |
	                                         [failure]
	                                             v
	                                           Open

Set keeps one breaker per model so an exhausted model is skipped without
delaying the rest of the fallback list.

	breakers := resilience.NewSet(resilience.DefaultSettings())
	b := breakers.Get("gemini-2.0-flash")
	if err := b.Allow(); err != nil {
		// skip this model
	}
	b.Done(callErr == nil)
*/
package resilience
