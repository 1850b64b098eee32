package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/listsync/internal/shared"
)

// ApprovalResult contains the outcome of a TMDb request token approval.
type ApprovalResult struct {
	RequestToken string
	err          error
}

func (a *ApprovalResult) Error() error {
	return a.err
}

// ApprovalHandler handles the redirect TMDb sends after the user approves or denies a request token.
//
// TMDb appends request_token plus approved=true or denied=true to the redirect URL.
// The expected request token doubles as the CSRF check: a callback for any other token is rejected.
type ApprovalHandler struct {
	requestToken string
	resultChan   chan ApprovalResult
	once         sync.Once
	callbackHit  bool
	mu           sync.Mutex
}

// NewApprovalHandler creates a handler expecting requestToken.
func NewApprovalHandler(requestToken string) *ApprovalHandler {
	return &ApprovalHandler{
		requestToken: requestToken,
		resultChan:   make(chan ApprovalResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ApprovalHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the approval callback. Only the first request is processed.
func (h *ApprovalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if token := q.Get("request_token"); token != h.requestToken {
		h.Send(ApprovalResult{err: fmt.Errorf("%w: unexpected request token", shared.ErrAuthFailed)})
		http.Error(w, "Invalid request token", http.StatusBadRequest)
		return
	}

	if q.Get("denied") == "true" || q.Get("approved") != "true" {
		h.Send(ApprovalResult{err: fmt.Errorf("%w: request token was not approved", shared.ErrAuthFailed)})
		http.Error(w, "Authorization denied", http.StatusForbidden)
		return
	}

	h.Send(ApprovalResult{RequestToken: h.requestToken})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #01b4e4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ TMDb access approved</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the approval result through the channel (only once).
func (h *ApprovalHandler) Send(result ApprovalResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving approval completion.
//
// Channel will receive exactly one result and then be closed.
func (h *ApprovalHandler) Result() <-chan ApprovalResult {
	return h.resultChan
}
