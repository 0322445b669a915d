package player

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playlistFixture = `<?xml version="1.0" encoding="UTF-8"?>
<node ralign="0" name="Undefined">
  <node name="Playlist" id="1">
    <leaf name="a.mp4" id="42" uri="file:///media/a.mp4"/>
  </node>
</node>`

const statusFixture = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <state>playing</state>
  <time>17</time>
</root>`

func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "", user)
		assert.Equal(t, "secret", pass)

		calls = append(calls, r.URL.RequestURI())
		w.Header().Set("Content-Type", "text/xml")
		switch r.URL.Path {
		case "/requests/playlist.xml":
			w.Write([]byte(playlistFixture))
		default:
			w.Write([]byte(statusFixture))
		}
	}))
	return srv, &calls
}

func newTestPlayer(t *testing.T, srv *httptest.Server) *HTTPPlayer {
	t.Helper()
	p := New("127.0.0.1", 0, "secret")
	p.baseURL = srv.URL
	return p
}

func TestHTTPPlayerEnqueueCachesID(t *testing.T) {
	srv, calls := newTestServer(t)
	defer srv.Close()
	p := newTestPlayer(t, srv)

	id, err := p.Enqueue("/media/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id2, err := p.Enqueue("/media/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "42", id2)

	// Second call is served from cache: only one playlist lookup issued.
	var playlistHits int
	for _, c := range *calls {
		if c == "/requests/playlist.xml" {
			playlistHits++
		}
	}
	assert.Equal(t, 1, playlistHits)
}

func TestHTTPPlayerPlaySeekPauseStop(t *testing.T) {
	srv, calls := newTestServer(t)
	defer srv.Close()
	p := newTestPlayer(t, srv)

	require.NoError(t, p.Play("42"))
	require.NoError(t, p.Seek(30*time.Second))
	require.NoError(t, p.Pause())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Loop(true))
	require.NoError(t, p.Repeat(false))

	require.Len(t, *calls, 6)
	assert.Contains(t, (*calls)[0], "command=pl_play")
	assert.Contains(t, (*calls)[0], "id=42")
	assert.Contains(t, (*calls)[1], "command=seek")
	assert.Contains(t, (*calls)[1], "val=30")
	assert.Contains(t, (*calls)[2], "command=pl_pause")
	assert.Contains(t, (*calls)[3], "command=pl_stop")
	assert.Contains(t, (*calls)[4], "command=pl_loop")
	assert.Contains(t, (*calls)[5], "command=pl_repeat")
}

func TestHTTPPlayerStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()
	p := newTestPlayer(t, srv)

	st, err := p.Status()
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, st.State)
	assert.Equal(t, 17*time.Second, st.Time)
}

func TestHTTPPlayerStatusNonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	p := newTestPlayer(t, srv)

	_, err := p.Status()
	assert.Error(t, err)
}

func TestFakePlayer(t *testing.T) {
	f := NewFake()

	id, err := f.Enqueue("a.mp4")
	require.NoError(t, err)
	id2, err := f.Enqueue("a.mp4")
	require.NoError(t, err)
	assert.Equal(t, id, id2, "repeat enqueue of same path reuses playlist id")

	require.NoError(t, f.Play(id))
	st, err := f.Status()
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, st.State)

	f.Advance(5 * time.Second)
	st, _ = f.Status()
	assert.Equal(t, 5*time.Second, st.Time)

	require.NoError(t, f.Stop())
	st, _ = f.Status()
	assert.Equal(t, StateStopped, st.State)

	assert.Equal(t, []string{"enqueue:a.mp4", "play:1", "stop"}, f.Calls)
}
