package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// requests to protected endpoints.
const AuthHeaderName = "Authorization"

// BearerPrefix precedes the access token inside AuthHeaderName.
const BearerPrefix = "Bearer "
