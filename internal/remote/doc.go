// Package remote talks to the attendance backend over HTTP.
//
// The client classifies failures into two families the orchestrator treats
// differently: ErrRemoteUnreachable for transport failures, which leave
// queued work in place for a later cycle, and ErrRemoteRejected for responses
// the backend refused, which are surfaced to the operator. Departure submits
// can additionally return ErrNoPriorArrival when no open arrival exists for
// the civil day.
package remote
