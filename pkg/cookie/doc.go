// Package cookie writes and reads the cookies of the stateful browser side of
// the storefront: the encrypted session cookie set by the transfer endpoint
// and any signed helper cookies.
//
// A Manager holds one or more secrets. The first one writes, all of them read,
// so secrets can be rotated without logging customers out. Every secret is
// expanded with HKDF-SHA256 into an HMAC-SHA256 signing key and an
// XChaCha20-Poly1305 sealing key. Both are bound to the cookie name, so a
// value minted for one cookie is rejected under another name.
//
// # Usage
//
//	jar, err := cookie.New([]string{os.Getenv("COOKIE_SECRETS")})
//	if err != nil {
//	    return err
//	}
//
//	_ = jar.SetEncrypted(w, "storefront_session", token, cookie.WithMaxAge(3600))
//	token, err := jar.GetEncrypted(r, "storefront_session")
//
// Plain Set/Get/Delete are available for values that need neither integrity
// nor privacy.
package cookie
