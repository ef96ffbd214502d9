package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fretboard/overlay"
	"go-fretboard/playback"
)

func doRequest(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	s := New(nil, nil)
	resp, body := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestScale(t *testing.T) {
	assert := assert.New(t)
	s := New(nil, nil)

	resp, body := doRequest(t, s, http.MethodGet, "/api/scale?root=A&type=dorian", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got ScaleResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal([]string{"A", "B", "C", "D", "E", "F#", "G"}, got.Notes)
	assert.Equal("1", got.Intervals[0])
	require.NotNil(t, got.Chords)
	assert.Len(got.Chords.Triads, 7)
	assert.Contains(got.Modes, "dorian")
}

func TestScaleValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing root", "/api/scale?type=major", "Root"},
		{"bad root", "/api/scale?root=H&type=major", "Root"},
		{"bad type", "/api/scale?root=C&type=nonsense", "Type"},
		{"bad convention", "/api/scale?root=C&type=major&convention=weird", "Convention"},
	}
	s := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, s, http.MethodGet, tt.query, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, CodeValidationError, e.Error.Code)
			assert.Contains(t, e.Error.Details, tt.field)
		})
	}
}

func TestChords(t *testing.T) {
	assert := assert.New(t)
	s := New(nil, nil)

	resp, body := doRequest(t, s, http.MethodGet, "/api/chords?symbol=Am7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got ChordResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal("A", got.Root)
	assert.Equal("m7", got.Quality)
	assert.Equal([]string{"A", "C", "E", "G"}, got.Notes)
	assert.Equal([]string{"1", "b3", "5", "b7"}, got.Intervals)

	resp, _ = doRequest(t, s, http.MethodGet, "/api/chords?symbol=Verse", "")
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestFretboard(t *testing.T) {
	assert := assert.New(t)
	s := New(nil, nil)

	resp, body := doRequest(t, s, http.MethodGet, "/api/fretboard?root=A&scale=minor-pentatonic&start=5&end=8&labels=intervals", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got FretboardResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(5, got.Window.Start)
	assert.Equal(8, got.Window.End)

	dots := got.Frame.Dots
	require.NotEmpty(t, dots)
	for _, d := range dots {
		assert.Equal(overlay.LayerScale, d.Layer)
		assert.GreaterOrEqual(d.Fret, 5)
		assert.LessOrEqual(d.Fret, 8)
		assert.Contains([]string{"1", "b3", "4", "5", "b7"}, d.Label)
	}
	// low E string, 5th fret
	top, found := got.Frame.Top(1, 5)
	require.True(t, found)
	assert.True(top.Root)
	assert.Equal("1", top.Label)
}

func TestFretboardChordAndTuning(t *testing.T) {
	assert := assert.New(t)
	s := New(nil, nil)

	resp, body := doRequest(t, s, http.MethodGet, "/api/fretboard?chord=D&tuning=bass4&end=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got FretboardResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(got.Tuning.Open, 4)
	assert.Equal("D", got.Frame.Root.Root)
	for _, d := range got.Frame.Dots {
		assert.Equal(overlay.LayerChord, d.Layer)
		assert.Contains([]string{"D", "F#", "A"}, d.Label)
	}

	resp, body = doRequest(t, s, http.MethodGet, "/api/fretboard?start=10&end=3", "")
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Contains(string(body), "End")
}

func TestSyncCommand(t *testing.T) {
	assert := assert.New(t)
	bus := playback.NewBus()
	s := New(nil, bus)

	var got []playback.Message
	cancel := bus.Subscribe("room", func(m playback.Message) { got = append(got, m) })
	defer cancel()

	resp, body := doRequest(t, s, http.MethodPost, "/api/sync/room", `{"type":"seek","percent":0.5,"autoplay":true}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	assert.JSONEq(`{"syncId":"room","clients":0,"members":1}`, string(body))

	require.Len(t, got, 1)
	assert.Equal("http", got[0].Origin)
	seek, isSeek := got[0].Command.(playback.SeekCmd)
	require.True(t, isSeek)
	assert.Equal(0.5, *seek.Percent)
	assert.True(seek.Autoplay)

	resp, _ = doRequest(t, s, http.MethodPost, "/api/sync/room", `{"type":"ping"}`)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	resp, _ = doRequest(t, s, http.MethodPost, "/api/sync/room", `{"type":"transport"}`)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Len(got, 1)

	resp, body = doRequest(t, s, http.MethodGet, "/api/sync/room", "")
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.JSONEq(`{"syncId":"room","clients":0,"members":1}`, string(body))
}

func TestSyncRequiresUpgrade(t *testing.T) {
	s := New(nil, nil)
	resp, _ := doRequest(t, s, http.MethodGet, "/sync/room", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
