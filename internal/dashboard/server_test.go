package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datadash/internal/config"
)

type seqGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqGen) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestServer(t *testing.T, mutate ...func(*config.Global)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.ChartWidth, cfg.ChartHeight = 400, 300
	for _, m := range mutate {
		m(cfg)
	}
	s, err := New(cfg, WithGenerator(&seqGen{}))
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, name, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookie)
	return nil
}

type envelope struct {
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

const uploadCSV = "city,temp,rain\nOslo,4.5,12\nRome,18.2,3\nCairo,29.1,0\n"

func TestIndexDefaultsToIris(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "📊 Data Analysis Dashboard")
	assert.Contains(t, body, `<option value="iris" selected>Iris Dataset 🌸</option>`)
	assert.Contains(t, body, "🔍 Previewing the first 10 rows of the dataset:")
	assert.Contains(t, body, "<th>sepal_length</th>")
	assert.Contains(t, body, "<b>150</b>")
	assert.Contains(t, body, "<h2>📊 Basic Statistics</h2>")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "Scatter Plot: sepal_length vs sepal_width")
	sessionCookie(t, rec)
}

func TestIndexUploadWithoutFileShowsPrompt(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/?dataset=upload")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, noDatasetPrompt)
	assert.NotContains(t, body, `class="banner error"`)
	assert.NotContains(t, body, "<h2>📋 Dataset Preview</h2>")
	assert.Contains(t, body, `action="/upload"`)
}

func TestIndexTogglesOff(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/?dataset=penguins&form=1&stats=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<h2>📋 Dataset Preview</h2>")
	assert.NotContains(t, body, "<h2>📈 Data Visualization</h2>")
	assert.Contains(t, body, "<h2>📊 Basic Statistics</h2>")
	assert.Contains(t, body, "bill_length_mm")
}

func TestIndexUnknownDataset(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/?dataset=mtcars")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="banner error"`)
}

func TestIndexChartWarningStaysInPanel(t *testing.T) {
	s := newTestServer(t)
	up := upload(t, s, "one.csv", "name,score\na,1\nb,2\nc,3\n")
	require.Equal(t, http.StatusSeeOther, up.Code)
	c := sessionCookie(t, up)

	rec := get(t, s, "/?dataset=upload&kind=scatter", c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Need at least two numeric columns for a scatter plot.")
	assert.NotContains(t, body, "data:image/png")
	assert.Contains(t, body, "<h2>📋 Dataset Preview</h2>")

	// the next request renders normally
	rec = get(t, s, "/?dataset=upload&kind=histogram", c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data:image/png;base64,")
}

func TestUploadValidCSV(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, "weather.csv", uploadCSV)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?dataset=upload", rec.Header().Get("Location"))
	c := sessionCookie(t, rec)
	require.NotNil(t, s.Sessions().Upload(c.Value))

	page := get(t, s, "/?dataset=upload", c)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "<code>weather.csv</code>")
	assert.Contains(t, body, "<td>Cairo</td>")
	assert.Contains(t, body, "<b>3</b>")
}

func TestUploadRejected(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		code int
		kind string
	}{
		{"unsupported extension", "data.txt", uploadCSV, http.StatusUnsupportedMediaType, "UnsupportedFormat"},
		{"header only", "empty.csv", "a,b\n", http.StatusUnprocessableEntity, "EmptyDataset"},
		{"single column", "one.csv", "a\n1\n2\n", http.StatusUnprocessableEntity, "InsufficientColumns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := upload(t, s, tc.file, tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `data-kind="`+tc.kind+`"`)
			c := sessionCookie(t, rec)
			assert.Nil(t, s.Sessions().Upload(c.Value))
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Global) { c.MaxUploadMB = 1 })
	big := "a,b\n" + strings.Repeat("1,2\n", 400_000)
	rec := upload(t, s, "big.csv", big)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload limit")
}

func TestFailedUploadKeepsPreviousFile(t *testing.T) {
	s := newTestServer(t)
	first := upload(t, s, "weather.csv", uploadCSV)
	require.Equal(t, http.StatusSeeOther, first.Code)
	c := sessionCookie(t, first)

	second := upload(t, s, "broken.csv", "a,b\n", c)
	require.Equal(t, http.StatusUnprocessableEntity, second.Code)

	f := s.Sessions().Upload(c.Value)
	require.NotNil(t, f)
	assert.Equal(t, "weather.csv", f.Name)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	up := upload(t, s, "weather.csv", uploadCSV)
	require.Equal(t, http.StatusSeeOther, up.Code)

	rec := get(t, s, "/?dataset=upload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), noDatasetPrompt)
	assert.NotContains(t, rec.Body.String(), "weather.csv")
}

func TestChartPNG(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/chart.png?dataset=iris&kind=histogram&column=petal_length&bins=500")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	again := get(t, s, "/chart.png?dataset=iris&kind=histogram&column=petal_length&bins=50")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, rec.Body.Bytes(), again.Body.Bytes())
}

func TestChartPNGWarnings(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/chart.png?dataset=upload")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerChartWarning))

	up := upload(t, s, "one.csv", "name,score\na,1\nb,2\n")
	require.Equal(t, http.StatusSeeOther, up.Code)
	rec = get(t, s, "/chart.png?dataset=upload&kind=heatmap", sessionCookie(t, up))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Need at least two numeric columns for a correlation heatmap.", rec.Header().Get(headerChartWarning))
}

func TestChartPNGInvalidKind(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/chart.png?dataset=iris&kind=radar")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "VisualizationError", decode(t, rec).Kind)
}

func TestAPIDatasets(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)

	var data datasetsResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data.Datasets, 4)
	assert.Equal(t, "iris", data.Datasets[0].ID)
	assert.Equal(t, "upload", data.Datasets[3].ID)
}

func TestAPIDescribe(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/describe?dataset=iris&correlations=true&group_by=species")
	require.Equal(t, http.StatusOK, rec.Code)

	var data describeResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, 150, data.Rows)
	require.Len(t, data.Numeric, 4)
	assert.Equal(t, "sepal_length", data.Numeric[0].Name)
	assert.Equal(t, 150, data.Numeric[0].Count)
	require.NotNil(t, data.Numeric[0].Min)
	assert.InDelta(t, 4.3, *data.Numeric[0].Min, 1e-9)
	require.NotNil(t, data.Correlations)
	assert.Len(t, data.Correlations.Values, 4)
	assert.Len(t, data.Groups, 3)
}

func TestAPIDescribeNaNIsNull(t *testing.T) {
	s := newTestServer(t)
	up := upload(t, s, "single.csv", "label,value\nx,7\n")
	require.Equal(t, http.StatusSeeOther, up.Code)

	rec := get(t, s, "/api/describe?dataset=upload", sessionCookie(t, up))
	require.Equal(t, http.StatusOK, rec.Code)
	var data describeResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data.Numeric, 1)
	assert.Nil(t, data.Numeric[0].Std)
	require.NotNil(t, data.Numeric[0].Mean)
	assert.InDelta(t, 7, *data.Numeric[0].Mean, 1e-9)
}

func TestAPIInfo(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/info?dataset=titanic")
	require.Equal(t, http.StatusOK, rec.Code)

	var data infoResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, 15, data.Columns)
	require.Len(t, data.Fields, 15)
	assert.Equal(t, "survived", data.Fields[0].Name)
}

func TestAPIBadRequest(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{"/api/describe?dataset=nope", "/api/describe?correlations=maybe"} {
		rec := get(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "InvalidRequest", decode(t, rec).Kind, target)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec).Message)

	rec = get(t, s, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, func(c *config.Global) { c.CORSOrigins = []string{"http://localhost:3000"} })
	req := httptest.NewRequest(http.MethodOptions, "/api/datasets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
