package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// BearerPrefix is accepted in the Authorization header by non-browser callers.
const BearerPrefix = "Bearer "
