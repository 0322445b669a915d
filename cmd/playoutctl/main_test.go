package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplayout/playout/config"
)

func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// writeTSClip writes a two-packet MPEG transport stream whose PCRs lie 10
// seconds apart, so media.Probe reads it as a 10-second clip.
func writeTSClip(t *testing.T, path string) {
	t.Helper()
	var data []byte
	for _, pcrBase := range []uint64{0, 10 * 90000} {
		pkt := make([]byte, 188)
		for i := range pkt {
			pkt[i] = 0xFF
		}
		pkt[0] = 0x47               // sync byte
		pkt[1], pkt[2] = 0x01, 0x00 // PID 0x100
		pkt[3] = 0x20               // adaptation field only
		pkt[4] = 183                // adaptation field length
		pkt[5] = 0x10               // PCR flag
		pkt[6] = byte(pcrBase >> 25)
		pkt[7] = byte(pcrBase >> 17)
		pkt[8] = byte(pcrBase >> 9)
		pkt[9] = byte(pcrBase >> 1)
		pkt[10] = byte(pcrBase<<7) | 0x7E
		pkt[11] = 0
		data = append(data, pkt...)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func testConfig(t *testing.T, secret string) *config.Config {
	dir := t.TempDir()
	writeTSClip(t, filepath.Join(dir, "a.ts"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.yaml"), []byte(`
sources:
  - source: `+filepath.Join(dir, "*.ts")+`
    clip_play_duration: 5
`), 0o644))
	return &config.Config{
		PlanGlob:         filepath.Join(dir, "*.yaml"),
		OutDir:           filepath.Join(dir, "out"),
		OutPriorityLevel: 100,
		Admin:            config.AdminConfig{JWTSecret: secret},
	}
}

func TestLoginAndStatusRoundTrip(t *testing.T) {
	cfg := testConfig(t, "topsecret")
	app := newApp(cfg, nil)

	loginReq := newJSONRequest(t, "POST", "/login", map[string]string{"operator": "alice"})
	loginResp, err := app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var loginBody struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&loginBody))
	assert.NotEmpty(t, loginBody.Token)

	statusReq, _ := http.NewRequest("GET", "/api/status", nil)
	statusReq.Header.Set("Authorization", "Bearer "+loginBody.Token)
	statusResp, err := app.Test(statusReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
}

func TestLoginCookieAuthorizesStatus(t *testing.T) {
	cfg := testConfig(t, "topsecret")
	app := newApp(cfg, nil)

	loginReq := newJSONRequest(t, "POST", "/login", map[string]string{"operator": "alice"})
	loginResp, err := app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var sessionCookieValue string
	for _, c := range loginResp.Cookies() {
		if c.Name == sessionCookie {
			sessionCookieValue = c.Value
		}
	}
	require.NotEmpty(t, sessionCookieValue)

	statusReq, _ := http.NewRequest("GET", "/api/status", nil)
	statusReq.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionCookieValue})
	statusResp, err := app.Test(statusReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
}

func TestStatusRejectsMissingToken(t *testing.T) {
	cfg := testConfig(t, "topsecret")
	app := newApp(cfg, nil)

	req, _ := http.NewRequest("GET", "/api/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRebuildHandlerCompilesPlans(t *testing.T) {
	cfg := testConfig(t, "topsecret")
	app := newApp(cfg, nil)

	loginReq := newJSONRequest(t, "POST", "/login", map[string]string{"operator": "alice"})
	loginResp, err := app.Test(loginReq)
	require.NoError(t, err)
	var loginBody struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&loginBody))

	req, _ := http.NewRequest("POST", "/api/rebuild", nil)
	req.Header.Set("Authorization", "Bearer "+loginBody.Token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PlansLoaded int `json:"plans_loaded"`
		Instances   int `json:"instances"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.PlansLoaded)
	assert.Equal(t, 1, body.Instances)
}

func TestAuthRoundTrip(t *testing.T) {
	secret := []byte("shh")
	tok, err := newOperatorToken("bob", secret, 0)
	require.NoError(t, err)

	claims, err := getClaims(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims["sub"])

	_, err = getClaims(tok, []byte("wrong"))
	assert.Error(t, err)
}
