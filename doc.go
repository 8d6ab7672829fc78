// Package studygroups implements session based authentication and group
// membership coordination for a study group service.
//
// Session layer:
//   - TokenService signs and verifies short lived JWT session tokens. The
//     cookie codec and SessionResolver turn an incoming Cookie header into
//     an authenticated-user-or-absent outcome without ever leaking why a
//     token was rejected.
//   - RouteAuthenticator binds the Authenticator to cookie transport: it
//     installs the auth cookie on login and registration and clears it on
//     logout. The token stays valid until expiry; there is no server side
//     revocation.
//
// Authorization:
//   - AuthorizationPolicy computes the caller's relation to a group (owner,
//     member, pending, stranger) from the membership and join-request
//     stores. Capabilities hang off the relation, not the caller's role.
//
// Join requests:
//   - JoinRequestStateMachine owns the NONE -> PENDING -> {ACCEPTED,
//     REJECTED} lifecycle. Accepting a request creates the membership in
//     the same transaction; a rejected request is self clearing on the
//     requester's next attempt.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the
//     state machine, and the group controller. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue
//     without blocking requests.
package studygroups
