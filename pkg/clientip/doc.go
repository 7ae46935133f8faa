// Package clientip resolves the address of the client behind the proxies in
// front of the service. The transfer endpoint rate limits on it.
//
// Headers are client controlled unless an edge proxy overwrites them, so a
// Resolver from an empty Config trusts only the connection address.
//
//	ips := clientip.New("X-Forwarded-For")
//	key := ips.IP(r)
package clientip
