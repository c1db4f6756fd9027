package openstack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/imamik/overcloud/internal/config"
)

// testServer mocks keystone plus every service behind one mux.
// Service endpoints in the catalog are path prefixes on the same server.
type testServer struct {
	server    *httptest.Server
	mux       *http.ServeMux
	authCalls atomic.Int32

	mu       sync.Mutex
	authBody map[string]any
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{mux: http.NewServeMux()}
	ts.server = httptest.NewServer(ts.mux)
	t.Cleanup(ts.server.Close)

	ts.mux.HandleFunc("POST /v3/auth/tokens", func(w http.ResponseWriter, r *http.Request) {
		ts.authCalls.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		ts.mu.Lock()
		ts.authBody = body
		ts.mu.Unlock()

		w.Header().Set("X-Subject-Token", "test-token")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": map[string]any{
				"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
				"catalog": []map[string]any{
					ts.catalogEntry(ServiceOrchestration, "/heat/v1/tenant"),
					ts.catalogEntry(ServiceBaremetal, "/ironic"),
					ts.catalogEntry(ServiceIntrospection, "/inspector"),
					ts.catalogEntry("baremetal-inspector", "/inspector"),
					ts.catalogEntry(ServiceCompute, "/nova/v2.1"),
					ts.catalogEntry(ServiceNetwork, "/neutron"),
					ts.catalogEntry(ServiceImage, "/glance"),
				},
			},
		})
	})
	return ts
}

func (ts *testServer) catalogEntry(service, prefix string) map[string]any {
	return map[string]any{
		"id":   service + "-id",
		"type": service,
		"name": service,
		"endpoints": []map[string]string{
			{"id": "a", "interface": "admin", "region": "regionOne", "region_id": "regionOne", "url": "http://wrong.invalid"},
			{"id": "p", "interface": "public", "region": "regionOne", "region_id": "regionOne", "url": ts.server.URL + prefix},
		},
	}
}

func (ts *testServer) lastAuthBody() map[string]any {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.authBody
}

// client returns a Client authenticated against the test server.
func (ts *testServer) client() *Client {
	return NewClient(config.Auth{
		URL:           ts.server.URL + "/v3",
		Username:      "admin",
		Password:      "secret",
		ProjectName:   "admin",
		UserDomain:    "Default",
		ProjectDomain: "Default",
		Interface:     "public",
	}, config.Endpoints{},
		WithHTTPClient(ts.server.Client()),
		WithTimeouts(&config.Timeouts{RetryMaxAttempts: 2, RetryInitialDelay: time.Millisecond}),
	)
}

// handleFunc registers a handler for a method and path pattern.
func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

// stack serves a minimal stack document for name.
func (ts *testServer) stack(name, id string) {
	ts.handleFunc("GET /heat/v1/tenant/stacks/"+name, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"stack": map[string]any{
			"id": id, "stack_name": name, "stack_status": "CREATE_COMPLETE",
		}})
	})
}

func nodeJSON(uuid, state, instance string) map[string]any {
	return map[string]any{
		"uuid":            uuid,
		"provision_state": state,
		"instance_uuid":   instance,
		"power_state":     "power off",
		"maintenance":     false,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
