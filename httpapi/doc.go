// Package httpapi serves the couchjwt token lifecycle over HTTP with gin.
//
// One endpoint path carries all four operations: POST logs in, GET returns
// the validated token, PUT renews and DELETE logs out. Responses are JSON
// unless the client asks for application/jwt, in which case the raw token
// is returned.
package httpapi
