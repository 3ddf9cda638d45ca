package demo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoint-analysis-service/config"
)

func TestAnomalySceneFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	l := NewLoader(&config.Config{DemoAnomalyURL: srv.URL})
	img, err := l.AnomalyScene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, []byte("jpeg-bytes"), img.Data)
}

func TestChangeSceneFetchesBoth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer srv.Close()

	l := NewLoader(&config.Config{
		DemoChangeBeforeURL: srv.URL + "/before",
		DemoChangeAfterURL:  srv.URL + "/after",
	})
	before, after, err := l.ChangeScene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("img:/before"), before.Data)
	assert.Equal(t, []byte("img:/after"), after.Data)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewLoader(&config.Config{DemoAnomalyURL: srv.URL})
	_, err := l.AnomalyScene(context.Background())
	assert.ErrorContains(t, err, "status 404")
}

func TestFetchMissingContentTypeDefaultsToJPEG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0xff, 0xd8})
	}))
	defer srv.Close()

	l := NewLoader(&config.Config{DemoAnomalyURL: srv.URL})
	img, err := l.AnomalyScene(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
}
