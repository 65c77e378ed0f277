package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habedi/rentdesk/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("http://127.0.0.1:8000/api/", nil)
	assert.Error(t, err)

	_, err = New("ftp://example.com/api/", newMemStore())
	assert.Error(t, err)

	_, err = New("::not a url", newMemStore())
	assert.Error(t, err)
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	c, err := New("http://127.0.0.1:8000/api", newMemStore())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000/api/", c.BaseURL())
	assert.Equal(t, "http://127.0.0.1:8000/api/payments/?year=2024", c.resolve("/payments/", map[string][]string{"year": {"2024"}}))
	assert.Equal(t, "http://127.0.0.1:8000/api/payments/3/mark_paid/", c.resolve("payments/3/mark_paid/", nil))

	tr, ok := c.refresher.(*TokenRefresher)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:8000/api/token/refresh/", tr.URL)
}

func TestDo_AttachesBearerAndRequestID(t *testing.T) {
	var auth, reqID atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		reqID.Store(r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"unread_count": 4}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, loggedInStore("T1", "R1"), &fakeRefresher{})
	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "Bearer T1", auth.Load())
	assert.NotEmpty(t, reqID.Load())
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newMemStore(), &fakeRefresher{})
	_, err := c.ListTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", auth.Load())
}

func TestPostJSONNoRefresh_DoesNotIntercept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
	}))
	defer srv.Close()

	refresher := &fakeRefresher{pair: TokenPair{Access: "T2"}}
	store := loggedInStore("T1", "R1")
	c := newTestClient(t, srv.URL, store, refresher)

	err := c.PostJSONNoRefresh(context.Background(), "token/", map[string]string{"username": "u", "password": "bad"}, nil)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No active account found with the given credentials", apiErr.Message("login failed"))
	assert.Zero(t, refresher.calls.Load())
	assert.Equal(t, "T1", store.value(db.SlotAccessToken))
}

func TestExtractResults(t *testing.T) {
	paginated, err := ExtractResults[Payment]([]byte(`{"count":2,"next":null,"results":[{"id":1},{"id":2}]}`))
	require.NoError(t, err)
	assert.Len(t, paginated, 2)

	bare, err := ExtractResults[Payment]([]byte(` [{"id":3}] `))
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.Equal(t, 3, bare[0].ID)

	empty, err := ExtractResults[Payment]([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ExtractResults[Payment]([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestList_FollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"next":"%s/payments/?page=2","results":[{"id":1}]}`, srv.URL)
		case "2":
			_, _ = io.WriteString(w, `{"next":"/payments/?page=3","results":[{"id":2}]}`)
		default:
			_, _ = io.WriteString(w, `{"next":null,"results":[{"id":3}]}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, loggedInStore("T1", "R1"), &fakeRefresher{})
	payments, err := c.ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{payments[0].ID, payments[1].ID, payments[2].ID})
}

func TestList_StopsOnPaginationLoop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"next":"/tenants/","results":[{"id":1}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, loggedInStore("T1", "R1"), &fakeRefresher{})
	tenants, err := c.ListTenants(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Not found."}`, "Not found."},
		{"field errors", `{"title":["This field is required."],"address":["This field may not be blank."]}`, "address: This field may not be blank.; title: This field is required."},
		{"string field", `{"error":"boom"}`, "error: boom"},
		{"not json", `<html>500</html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDetail([]byte(tt.body)))
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	e := &APIError{Method: "GET", URL: "http://x/api/", StatusCode: 500}
	assert.Equal(t, "fallback", e.Message("fallback"))
	assert.Contains(t, e.Error(), "500")

	e.Detail = "broken"
	assert.Equal(t, "broken", e.Message("fallback"))
	assert.Contains(t, e.Error(), "broken")
}

func TestUploadDocument_SendsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lease.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 lease"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Lease 2024", r.FormValue("title"))
		assert.Equal(t, "contract", r.FormValue("document_type"))
		assert.Equal(t, "5", r.FormValue("tenant"))
		assert.Empty(t, r.FormValue("apartment"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "lease.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4 lease", string(content))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":9,"title":"Lease 2024","document_type":"contract","file":"http://x/media/lease.pdf"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, loggedInStore("T1", "R1"), &fakeRefresher{})
	doc, err := c.UploadDocument(context.Background(), UploadDocument{
		Title: "Lease 2024", DocumentType: "contract", Tenant: 5, Path: path,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, doc.ID)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1/api/", loggedInStore("T1", "R1"), &fakeRefresher{})
	_, err := c.UploadDocument(context.Background(), UploadDocument{Title: "x", Path: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 450.0, ParseAmount("450.00"))
	assert.Equal(t, 12.5, ParseAmount(" 12.5 "))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("n/a"))
}

func TestNew_TimeoutCopiesTransportClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	c, err := New("http://127.0.0.1:8000/api/", newMemStore(), WithHTTPClient(shared), WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.http.Timeout)
	assert.Equal(t, time.Minute, shared.Timeout, "the caller's client is left alone")

	c, err = New("http://127.0.0.1:8000/api/", newMemStore(), WithTimeout(5*time.Second), WithHTTPClient(shared))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.http.Timeout, "option order does not matter")
	assert.Equal(t, time.Minute, shared.Timeout)
}

func TestSameOrigin(t *testing.T) {
	c, err := New("https://rent.example.com/api/", newMemStore())
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want bool
	}{
		{"https://rent.example.com/media/a.pdf", true},
		{"https://RENT.example.com:443/media/a.pdf", true},
		{"http://rent.example.com/media/a.pdf", false},
		{"https://rent.example.com:8443/media/a.pdf", false},
		{"https://files.example.com/media/a.pdf", false},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.sameOrigin(u), tt.raw)
	}
}
