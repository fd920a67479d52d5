package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var ginParam = regexp.MustCompile(`:(\w+)`)

func TestDocs_ServesUI(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/docs/index.html", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "swagger-ui")
}

func TestDocs_DescribesEveryRoute(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/docs/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath            string                                `json:"basePath"`
		Paths               map[string]map[string]json.RawMessage `json:"paths"`
		SecurityDefinitions map[string]json.RawMessage            `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, "/v1", doc.BasePath)
	require.Contains(t, doc.SecurityDefinitions, "BearerAuth")

	for _, route := range srv.router.Routes() {
		path, ok := strings.CutPrefix(route.Path, "/v1")
		if !ok {
			continue
		}
		path = ginParam.ReplaceAllString(path, "{$1}")
		ops, ok := doc.Paths[path]
		require.True(t, ok, "undocumented path %s", path)
		require.Contains(t, ops, strings.ToLower(route.Method), "undocumented %s %s", route.Method, path)
	}
}
