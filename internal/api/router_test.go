package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentisweep/internal/display"
	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/ingest"
	"github.com/spacesedan/sentisweep/internal/models"
	"github.com/spacesedan/sentisweep/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]models.AggregateRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]models.AggregateRecord)}
}

func (m *memStore) Insert(_ context.Context, projectTitle string, bins histogram.Counts) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.records[m.nextID] = models.AggregateRecord{ID: m.nextID, ProjectTitle: projectTitle, Bins: bins}
	return m.nextID, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (models.AggregateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return models.AggregateRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) Close() error { return nil }

type fixedScorer struct {
	scores map[string]float64
}

func (f fixedScorer) Score(text string) float64 { return f.scores[text] }

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	st := newMemStore()
	scorer := fixedScorer{scores: map[string]float64{
		"I love this": 0.8,
		"I hate this": -0.8,
	}}
	mux := NewRouter(ingest.NewEngine(scorer, st), display.NewAdapter(st, nil))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func multipartUpload(t *testing.T, csvBody string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "dataset.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadThenDisplay(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "post\nI love this\n\nI hate this\n",
		map[string]string{"chart_title": "demo run"})
	resp, err := http.Post(srv.URL+"/api/v1/datasets", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded struct {
		Success bool    `json:"success"`
		ID      int64   `json:"id"`
		Bins    []int64 `json:"bins"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.True(t, uploaded.Success)
	require.Len(t, uploaded.Bins, histogram.NumBuckets)
	assert.Equal(t, int64(1), uploaded.Bins[9])
	assert.Equal(t, int64(1), uploaded.Bins[5])
	assert.Equal(t, int64(1), uploaded.Bins[1])

	got, err := http.Get(srv.URL + "/api/v1/datasets/" + strconv.FormatInt(uploaded.ID, 10))
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var view display.View
	require.NoError(t, json.NewDecoder(got.Body).Decode(&view))
	assert.Equal(t, "demo run", view.ProjectTitle)
	assert.Equal(t, int64(3), view.Total)
	assert.Equal(t, int64(1), view.Bins["+0.8"])
}

func TestUploadWithoutFile(t *testing.T) {
	srv, st := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("chart_title", "missing file"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/datasets", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, st.records)

	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "bad_request", payload.Error)
}

func TestDisplayUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/datasets/12345")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "not_found", payload.Error)
}

func TestDisplayNonIntegerID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/datasets/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
