// Package transfer hands a stateless API session over to a stateful browser
// session.
//
// The API builds a transfer link for the current session with Handshake.Link.
// The link carries the session token, a named action and a nonce bound to
// {action, session key, client sub-id} and to the current tick bucket of the
// nonce signer. When the browser follows the link, the Handshake endpoint
// checks the token, the action and the nonce (current or previous bucket),
// loads the session record, stores an encrypted session cookie and redirects
// with 302 to the action's destination or to a safe relative redirect_to.
//
// Every failed check redirects to the fallback URL instead. The operator log
// line (event "transfer.rejected") deliberately does not say which check
// failed; the optional reject hook receives the reason in-process.
//
// Nonces are reusable within their window unless a ReplayGuard is configured,
// in which case every nonce is accepted once.
//
//	h := transfer.New(codec, signer, store, session.NewCookieTransport(jar, "storefront_session", true),
//	    transfer.WithBaseURL("https://shop.example"),
//	    transfer.WithReplayGuard(transfer.NewMemoryReplayGuard(10_000)),
//	)
//	r.Get(h.Path(), h.ServeHTTP)
//
//	link, err := h.Link(identity, transfer.ActionCheckout, "")
package transfer
