// Package auth issues and verifies compact HS256 bearer tokens bound to a
// cluster.
//
// Tokens come in two variants that share one wire format:
//   - UserToken authenticates an interactive session. Its liveness is fully
//     described by the signed exp claim.
//   - APIToken authenticates a long lived machine credential. Its subject
//     carries the "api" prefix and its liveness (revocation, expiry, issue
//     date) is owned by an APITokenStore that is consulted on every
//     verification.
//
// Signing keys and the issuer:
//   - SigningKeyProvider resolves the key once per process from a
//     SigningKeyFactory selected by name (see RegisterSigningKeyFactory).
//     A failed resolution is sticky; nothing is ever signed or verified
//     with a fallback key.
//   - ClusterIdentity resolves the cluster id once per process. It is
//     stamped as iss on every token and a token from another cluster is
//     rejected even when its signature verifies.
//
// Verification order:
//   - empty input, signature and structure, issuer, variant, then the API
//     token record checks (unknown, revoked, expired, not yet valid,
//     invalid). Each failure is a go-errors value; KindOf names it.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before tokens are signed. Decorators may
//     enrich Claims.Metadata while registered claims and the xmod and xnet
//     extensions remain immutable.
package auth
