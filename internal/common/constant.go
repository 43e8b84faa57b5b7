package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on requests to the server API.
const AccessTokenHeaderName = "Access-Token"
