// Package ridepool implements the client core of the Challenge School Ride
// Pool application: federated sign-in through a hosted identity provider,
// profile CRUD against the ride pool REST API, and the view-state machine
// that ties the two together.
//
// View states:
//   - Every consumer renders exactly one of four view states (Loading,
//     Anonymous, Unregistered, Registered). StateMachine centralizes the
//     transition graph so illegal combinations are unrepresentable; callers
//     never juggle boolean flags.
//   - Sign-in is a one-way redirect to the hosted UI. The process observes
//     the outcome only through a fresh EvaluateSession after it restarts,
//     never through an in-process continuation.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the state machine
//     to describe sign-in, sign-out, and profile lifecycle events. Sinks run
//     best-effort (errors are logged) so you can forward to analytics without
//     blocking the flow.
package ridepool
