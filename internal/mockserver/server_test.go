package mockserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	return New(42, logger).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, out := do(t, newTestRouter(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", out["status"])
}

func TestInfo(t *testing.T) {
	rec, out := do(t, newTestRouter(t), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ServiceName, out["service"])
	endpoints, ok := out["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, endpoints, "/classify/biased")
}

func TestClassifyReturnsBinaryAndEchoes(t *testing.T) {
	h := newTestRouter(t)
	seen := map[float64]bool{}
	for _, path := range []string{"/classify", "/classify/random"} {
		for i := 0; i < 50; i++ {
			rec, out := do(t, h, http.MethodPost, path, `{"features":[1,2,3]}`)
			require.Equal(t, http.StatusOK, rec.Code)
			inf, ok := out["inference"].(float64)
			require.True(t, ok)
			assert.Contains(t, []float64{0, 1}, inf)
			assert.Equal(t, []any{1.0, 2.0, 3.0}, out["features"])
			seen[inf] = true
		}
	}
	assert.Len(t, seen, 2, "expected both classes over 100 draws")
}

func TestClassifySeeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	a, b := New(7, logger).Router(), New(7, logger).Router()
	for i := 0; i < 20; i++ {
		_, outA := do(t, a, http.MethodPost, "/classify", `{"features":"x"}`)
		_, outB := do(t, b, http.MethodPost, "/classify", `{"features":"x"}`)
		assert.Equal(t, outA["inference"], outB["inference"])
	}
}

func TestBiasedAlwaysPositive(t *testing.T) {
	h := newTestRouter(t)
	for i := 0; i < 10; i++ {
		rec, out := do(t, h, http.MethodPost, "/classify/biased", `{"features":{"age":30}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1.0, out["inference"])
		assert.Equal(t, BiasedNote, out["note"])
	}
}

func TestNullFeaturesAccepted(t *testing.T) {
	rec, out := do(t, newTestRouter(t), http.MethodPost, "/classify", `{"features":null}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out, "features")
	assert.Nil(t, out["features"])
}

func TestMissingFeatures(t *testing.T) {
	h := newTestRouter(t)
	for _, body := range []string{`{}`, `{"other":1}`, `[1,2]`, `not json`} {
		rec, out := do(t, h, http.MethodPost, "/classify/biased", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.NotEmpty(t, out["error"], body)
	}
}
