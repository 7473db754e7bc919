package testutil

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// PurgeCall is one purge_cache request received by a PurgeAPI.
type PurgeCall struct {
	Path  string
	Auth  string
	Files []string
}

// PurgeReply decides the status and body returned for a call.
type PurgeReply func(call PurgeCall) (int, string)

// PurgeAPI stands in for the Cloudflare zone API and records every purge
// batch it receives.
type PurgeAPI struct {
	*httptest.Server

	reply PurgeReply
	mu    sync.Mutex
	calls []PurgeCall
}

// NewPurgeAPI starts a PurgeAPI, or skips the test if binding a port is not
// permitted. A nil reply accepts every batch.
func NewPurgeAPI(t *testing.T, reply PurgeReply) *PurgeAPI {
	t.Helper()

	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip: cannot listen in sandbox: %v", err)
	}

	api := &PurgeAPI{reply: reply}
	api.Server = &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: http.HandlerFunc(api.serve)},
	}
	api.Start()
	t.Cleanup(api.Close)
	return api
}

// Calls returns the batches received so far, in arrival order.
func (a *PurgeAPI) Calls() []PurgeCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]PurgeCall(nil), a.calls...)
}

func (a *PurgeAPI) serve(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"success":false,"errors":[{"code":1012,"message":"Request must contain one of files"}]}`, http.StatusBadRequest)
		return
	}

	call := PurgeCall{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Files: payload.Files}
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()

	status, body := http.StatusOK, `{"success":true,"errors":[]}`
	if a.reply != nil {
		status, body = a.reply(call)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
