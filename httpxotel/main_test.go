// Copyright 2024 The httpxotel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpxotel

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

var httpServer *httptest.Server

var (
	serverMu      sync.Mutex
	lastReqHeader http.Header
)

func TestMain(m *testing.M) {
	// Start a test server shared by the end-to-end tests. It records
	// the headers of the most recent request so tests can verify what
	// was propagated on the wire.
	httpServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverMu.Lock()
		lastReqHeader = r.Header.Clone()
		serverMu.Unlock()
		_, _ = w.Write([]byte("Success!"))
	}))

	code := m.Run()
	httpServer.Close()
	os.Exit(code)
}

func lastServerHeader() http.Header {
	serverMu.Lock()
	defer serverMu.Unlock()
	return lastReqHeader
}
