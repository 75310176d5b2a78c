package healthz

import (
	"fmt"
	"net/http"
)

// Handler answers 200 while its check passes and 503 otherwise.  A nil check
// always passes.
type Handler struct {
	check func() error
}

func New(check func() error) *Handler {
	return &Handler{check: check}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		if err := h.check(); err != nil {
			http.Error(w, fmt.Sprintf("503 %v", err), http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("200 OK"))
}
