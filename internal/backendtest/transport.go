package backendtest

import "net/http"

// Transport adapts the fake backend to http.RoundTripper so the real HTTP
// client code path runs against it without opening sockets.
type Transport struct {
	Backend *Backend
}

func (t Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Backend.app.Test(req, -1)
}

// HTTPClient returns an http.Client routed at the fake backend.
func (b *Backend) HTTPClient() *http.Client {
	return &http.Client{Transport: Transport{Backend: b}}
}
