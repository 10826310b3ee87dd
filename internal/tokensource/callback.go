package tokensource

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
)

// callbackResult is the outcome of one browser round trip: either an
// authorization code (with the provider-echoed state) or a provider
// error code.
type callbackResult struct {
	code    string
	state   string
	errCode string
}

// callbackListener is a single-use HTTP endpoint on the local loopback
// address that captures the redirect from the provider's consent page.
// It serves at most the handful of requests generated by one browser
// round trip; requests without a code or error parameter (favicon
// probes etc.) get a 400 and do not terminate the wait.
type callbackListener struct {
	srv     *http.Server
	lis     net.Listener
	results chan callbackResult
}

// newCallbackListener binds addr and starts serving immediately, so the
// port is owned before the user is sent to the browser.
func newCallbackListener(addr string) (*callbackListener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding callback listener on %s: %w", addr, err)
	}

	c := &callbackListener{
		lis:     lis,
		results: make(chan callbackResult, 1),
	}
	c.srv = &http.Server{Handler: http.HandlerFunc(c.handle)}

	go func() { _ = c.srv.Serve(lis) }()

	return c, nil
}

func (c *callbackListener) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	switch {
	case query.Get("code") != "":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html><body>"+
			"<h1>Authentication Successful!</h1>"+
			"<p>You can close this window and return to the terminal.</p>"+
			"</body></html>")
		c.deliver(callbackResult{code: query.Get("code"), state: query.Get("state")})

	case query.Get("error") != "":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "<html><body>"+
			"<h1>Authentication Failed</h1>"+
			"<p>Error: %s</p>"+
			"</body></html>", html.EscapeString(query.Get("error")))
		c.deliver(callbackResult{errCode: query.Get("error")})

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

// deliver records the first result; later requests are served but ignored.
func (c *callbackListener) deliver(res callbackResult) {
	select {
	case c.results <- res:
	default:
	}
}

// Wait blocks until a code or error has been captured. The wait is
// bounded only by user action in the browser, or by ctx cancellation.
func (c *callbackListener) Wait(ctx context.Context) (callbackResult, error) {
	select {
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	case res := <-c.results:
		return res, nil
	}
}

// Addr returns the bound address (useful when listening on port 0).
func (c *callbackListener) Addr() string {
	return c.lis.Addr().String()
}

// Close releases the port.
func (c *callbackListener) Close() error {
	return c.srv.Close()
}
