// Package hybrid orchestrates menu-photo text recognition across a remote
// cloud service and an always-available local engine.
//
// The Coordinator owns both engines and runs one state machine per
// request:
//
//	START
//	 ├─ cloud unavailable or forced local → LOCAL_ONLY
//	 └─ cloud available →
//	      CLOUD_ATTEMPT
//	       ├─ confidence clears the floor → done (cloud)
//	       ├─ confidence below the floor → LOCAL_BACKUP, higher
//	       │  confidence wins arbitration, ties favor cloud
//	       └─ error → LOCAL_FALLBACK, original error message preserved
//	          as the result's fallback reason
//
// Callers observe either one result (possibly flagged with a fallback
// reason) or exactly one error; intermediate attempts are never surfaced
// individually.
//
// # Concurrency
//
// The coordinator keeps no request queue: concurrent ProcessImage calls
// run independently, each making at most one cloud and one local attempt,
// strictly in sequence. Usage statistics are folded in per request with
// no cross-request ordering guarantee: under concurrent callers the
// moving average depends on completion order.
//
// Credential updates swap the cloud client under a mutex, but a request
// already in flight keeps the client it started with.
package hybrid
