// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ipp-aug/ddww/ddmem"
	"github.com/stretchr/testify/require"
)

const (
	run1      = "6f1c2a3e-0b4d-4e5f-8a9b-0c1d2e3f4a5b"
	run2      = "7a2d3b4f-1c5e-4f60-9bac-1d2e3f4a5b6c"
	upID      = "8b3e4c50-2d6f-4071-acbd-2e3f4a5b6c7d"
	partialID = "9c4f5d61-3e70-4182-bdce-3f4a5b6c7d8e"
	oldID     = "ad506e72-4f81-4293-cedf-4a5b6c7d8e9f"
)

func newTestServer(t *testing.T) (*server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := newServer(t.TempDir(), ddmem.New(), mux)
	t.Cleanup(srv.Shutdown)
	return srv, mux
}

// login fetches the main page and returns the session cookie.
func login(t *testing.T, mux *http.ServeMux) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "YPR round trip")
	require.Contains(t, w.Body.String(), `value="5010"`)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, cookieName, cookies[0].Name)
	return cookies[0]
}

func form(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, v := range files {
		fw, err := mw.CreateFormFile(k, k+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(v))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func post(t *testing.T, mux *http.ServeMux, cookie *http.Cookie, path string, fields, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := form(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ctype)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func get(mux *http.ServeMux, cookie *http.Cookie, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServerRun(t *testing.T) {
	srv, mux := newTestServer(t)
	cookie := login(t, mux)

	fields := map[string]string{
		"id":   run1,
		"shot": "42",
		"k1":   "2",
		"k2":   "4",
		"n":    "10",
		"blk":  "8",
	}
	w := post(t, mux, cookie, "/run", fields, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Equal(t, int32(1), res.Edition)
	require.Len(t, res.Date, len(ddmem.DateLayout))
	img, err := base64.StdEncoding.DecodeString(res.Image)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	w = get(mux, cookie, "/dl?id="+run1)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "# exp=AUGD diag=YPR shot=42 edition=1")
	var rows int
	for _, line := range strings.Split(strings.TrimSpace(w.Body.String()), "\n") {
		if !strings.HasPrefix(line, "#") {
			rows++
		}
	}
	require.Equal(t, 3, rows)

	fields["id"] = run2
	w = post(t, mux, cookie, "/run", fields, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Equal(t, int32(2), res.Edition)

	w = post(t, mux, cookie, "/rm", map[string]string{"id": run1}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err = os.Stat(srv.runDir(run1))
	require.True(t, os.IsNotExist(err))

	w = get(mux, cookie, "/dl?id="+run1)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServerUpload(t *testing.T) {
	_, mux := newTestServer(t)
	cookie := login(t, mux)

	files := map[string]string{
		"time":   "0\n0.1\n0.2\n",
		"area":   "1.6\n2.2\n",
		"signal": "1,2\n3,4\n5,6\n",
	}
	fields := map[string]string{"id": upID, "blk": "2", "k1": "1", "k2": "3", "cross": "2"}
	w := post(t, mux, cookie, "/run", fields, files)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(mux, cookie, "/dl?id="+upID)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "1\t2\t1\t2\n")
	require.Contains(t, w.Body.String(), "3\t6\t5\t6\n")

	delete(files, "area")
	fields["id"] = partialID
	w = post(t, mux, cookie, "/run", fields, files)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServerErrors(t *testing.T) {
	_, mux := newTestServer(t)

	w := post(t, mux, nil, "/run", map[string]string{"id": "x"}, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code, "no session")

	cookie := login(t, mux)
	for _, tc := range []struct {
		name   string
		fields map[string]string
	}{
		{"no-id", map[string]string{}},
		{"relative-id", map[string]string{"id": "../../victim"}},
		{"bad-shot", map[string]string{"id": run1, "shot": "abc"}},
		{"shot-overflow", map[string]string{"id": run1, "shot": "4294972306"}},
		{"no-samples", map[string]string{"id": run1, "n": "0"}},
		{"no-channels", map[string]string{"id": run1, "blk": "0"}},
		{"too-many-values", map[string]string{"id": run1, "n": "1000000000", "blk": "16"}},
		{"bad-range", map[string]string{"id": run1, "k1": "3", "k2": "2", "n": "4"}},
		{"range-beyond-data", map[string]string{"id": run1, "k2": "5", "n": "4"}},
		{"relative-exp", map[string]string{"id": run1, "exp": "../../outside"}},
		{"exp-separator", map[string]string{"id": run1, "exp": "AUGD/x"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, mux, cookie, "/run", tc.fields, nil)
			require.Equal(t, http.StatusInternalServerError, w.Code)
		})
	}

	w = get(mux, cookie, "/dl?id=unknown")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServerGC(t *testing.T) {
	srv, mux := newTestServer(t)
	cookie := login(t, mux)

	w := post(t, mux, cookie, "/run", map[string]string{"id": oldID, "n": "4"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err := os.Stat(srv.runDir(oldID))
	require.NoError(t, err)

	srv.gc(time.Now())
	_, err = os.Stat(srv.runDir(oldID))
	require.NoError(t, err, "session still valid")

	srv.gc(time.Now().Add(48 * time.Hour))
	_, err = os.Stat(srv.runDir(oldID))
	require.True(t, os.IsNotExist(err))

	w = get(mux, cookie, "/dl?id="+oldID)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServerRunIDStaysInside(t *testing.T) {
	srv, mux := newTestServer(t)
	cookie := login(t, mux)

	const id = "../../victim"
	victim := filepath.Join(srv.dir, "id", id)
	require.NoError(t, os.MkdirAll(victim, 0755))
	precious := filepath.Join(victim, "precious.txt")
	require.NoError(t, os.WriteFile(precious, []byte("keep"), 0644))

	w := post(t, mux, cookie, "/run", map[string]string{"id": id, "n": "4"}, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = post(t, mux, cookie, "/rm", map[string]string{"id": id}, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = get(mux, cookie, "/dl?id="+id)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	srv.gc(time.Now().Add(48 * time.Hour))

	_, err := os.Stat(precious)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(victim, "readback.csv"))
	require.True(t, os.IsNotExist(err))
}
