package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/curator/internal/auth"
	"github.com/desertthunder/curator/internal/models"
)

// CallbackPath is where the backend redirects the browser after login.
const CallbackPath = "/callback"

// CallbackResult is the outcome of one login callback.
type CallbackResult struct {
	Credentials models.Credentials
	Err         error
}

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Title, Message, Color string
}

// CallbackHandler receives the backend's login redirect and delivers the token triple once.
//
// Tokens arrive as query parameters (see [auth.ParseCallback]). Only the first request is
// processed; later requests get a 400.
type CallbackHandler struct {
	results chan CallbackResult
	once    sync.Once
	mu      sync.Mutex
	hit     bool
}

// NewCallbackHandler creates a handler with a buffered result channel.
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{results: make(chan CallbackResult, 1)}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET " + CallbackPath}
}

// ServeHTTP parses the callback, sends the result and renders a page for the browser.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	creds, err := auth.ParseCallback(r.URL.Query())
	h.Send(CallbackResult{Credentials: creds, Err: err})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		resultPage.Execute(w, page{Title: "Login Failed", Message: fmt.Sprint(err), Color: "#e22134"})
		return
	}

	w.WriteHeader(http.StatusOK)
	resultPage.Execute(w, page{
		Title:   "✓ Login Successful",
		Message: "You can close this window and return to the terminal.",
		Color:   "#1DB954",
	})
}

// Send delivers result on the channel exactly once and closes it.
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel that receives exactly one result.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}
