// Package services holds the engine: paginated search, the request
// throttle, the write prober, the decoy synthesizer and the orchestrators
// that drive them across many targets.
//
// Services depend only on driven ports. Sessions, sinks and template
// stores are injected.
package services
