package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// IdentityKey is the context key under which the authorization gate stores
// the resolved caller identity (*auth.Identity).
const IdentityKey Key = "identity"

// ClientIPKey is the context key under which the server stores the client IP
// (string) for handlers that record audit rows.
const ClientIPKey Key = "clientIP"
