package playback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingStrategies(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{
			"http://x/scores/a (b).gp?v=1",
			[]string{
				"http://x/scores/a%20%28b%29.gp?v=1",
				"http://x/scores/a%20(b).gp?v=1",
				"http://x/scores/a (b).gp?v=1",
			},
		},
		{
			"http://x/my song.gp",
			[]string{"http://x/my%20song.gp", "http://x/my song.gp"},
		},
		{"http://x/plain.gp", []string{"http://x/plain.gp"}},
		// already escaped segments are not escaped twice
		{"http://x/a%20b.gp", []string{"http://x/a%20b.gp"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodingStrategies(tt.raw))
		})
	}
}

func TestFetchFallsBackThroughEncodings(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.RequestURI)
		if r.RequestURI != "/a%20(b).gp" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("score-bytes"))
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client()}
	data, err := f.Fetch(context.Background(), srv.URL+"/a (b).gp")
	require.NoError(t, err)
	assert.Equal(t, "score-bytes", string(data))
	assert.Equal(t, []string{"/a%20%28b%29.gp", "/a%20(b).gp"}, seen)
}

func TestFetchAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL+"/x y.gp")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorContains(t, err, "410")
}

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mid")
	require.NoError(t, os.WriteFile(path, []byte("MThd"), 0o644))

	data, err := NewFetcher().Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data))

	data, err = NewFetcher().Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data))

	_, err = NewFetcher().Fetch(context.Background(), filepath.Join(dir, "missing.mid"))
	assert.ErrorIs(t, err, ErrFetchFailed)
}
