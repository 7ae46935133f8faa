// Package nonce derives short, time-windowed proofs that a set of request
// parameters belongs to a given session.
//
// A nonce is a keyed hash over {tick, action, session key, client id},
// truncated to a short hex string. The tick is a coarse time bucket
// (ceil(unix / tick width)), so a nonce created at tick T verifies at T and
// T+1 and is rejected from T+2 onwards. Nonces are never stored; whether a
// nonce may be used once or many times inside the window is up to the caller.
//
//	signer, _ := nonce.New(secret, nonce.WithTick(12*time.Hour))
//	n := signer.Create("checkout", sessionKey, clientID)
//
//	switch signer.Verify(n, "checkout", sessionKey, clientID) {
//	case nonce.Current, nonce.Previous:
//	    // accepted
//	default:
//	    // rejected
//	}
package nonce
