package middleware

import (
	"context"
	"net"
	"net/http"
)

type peerAddrKey struct{}

// PeerAddr records the socket peer address before any header-based
// rewriting of RemoteAddr. Mount it ahead of chi's RealIP.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// peerIP is the host part of the recorded peer address, falling back to
// RemoteAddr when PeerAddr is not mounted.
func peerIP(r *http.Request) string {
	addr, ok := r.Context().Value(peerAddrKey{}).(string)
	if !ok || addr == "" {
		addr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
