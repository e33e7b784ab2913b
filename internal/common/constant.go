package common

// SessionCookieName is the browser cookie that carries the signed session token.
const SessionCookieName = "jc_session"

// IdentityContextKey is the gin context key under which the verified identity
// (normalized email) is stored by the session middleware.
const IdentityContextKey = "identity"
