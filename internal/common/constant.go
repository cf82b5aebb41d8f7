package common

// AuthorizationHeaderName is the HTTP header carrying the access token on
// authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token inside the authorization header.
const BearerPrefix = "Bearer "
