// Package storefront is the HTTP API of the shop's headless client.
//
// Every API route runs behind the session middleware, so a client without a
// valid token gets a fresh anonymous session and finds its token in the
// session response header. Cart reads use the session snapshot bound to the
// request; cart writes go through the per-session mutation queue and always
// see the latest stored cart.
//
// Routes:
//
//	GET    /health
//	GET    /cart
//	DELETE /cart
//	POST   /cart/items
//	PATCH  /cart/items/{key}
//	DELETE /cart/items/{key}
//	POST   /cart/items/{key}/restore
//	POST   /session/rotate
//	DELETE /session
//	GET    /session/links
//	GET    <transfer path>    transfer handshake, redirects the browser, rate limited per client IP
//	GET    /web/cart          cart of the cookie session set by a transfer
//
// Errors are JSON objects {"error": "<key>"}; 503 and 429 answers carry Retry-After.
package storefront
