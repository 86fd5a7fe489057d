package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledsign/pkg/config"
	"ledsign/pkg/device/virtual"
	"ledsign/pkg/render"
	"ledsign/pkg/store"
	"ledsign/pkg/transmit"
)

type env struct {
	srv  *httptest.Server
	ctrl *virtual.Mocker
	fs   afero.Fs
}

func newEnv(t *testing.T, online bool) *env {
	fs := afero.NewMemMapFs()
	st, err := store.New(fs, "generated_images", zap.NewNop())
	require.NoError(t, err)

	r, err := render.New(fs, "", zap.NewNop())
	require.NoError(t, err)

	ctrl := virtual.Mock(zap.NewNop(), online)
	tx := transmit.New(st, transmit.Local(ctrl, zap.NewNop()), zap.NewNop())

	h := New(r, tx, config.Default().Defaults, zap.NewNop())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &env{srv: srv, ctrl: ctrl, fs: fs}
}

func (e *env) post(t *testing.T, body string) (int, map[string]string) {
	resp, err := http.Post(e.srv.URL+GeneratePath, "application/json; charset=utf-8", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *env) images(t *testing.T) int {
	infos, err := afero.ReadDir(e.fs, "generated_images")
	require.NoError(t, err)
	return len(infos)
}

const scenario = `{"text": "СТОП\\nВыключить фары", "led_width": 128, "led_height": 64, "led_ip": "192.168.156.68", "led_port": 5200}`

func TestGenerateOK(t *testing.T) {
	e := newEnv(t, true)

	status, out := e.post(t, scenario)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]string{"send_image": "OK"}, out)
	assert.Equal(t, 0, e.images(t))
	assert.Equal(t, []string{"init", "bind", "connect", "is-connected", "send-picture", "disconnect"}, e.ctrl.Calls())
}

func TestGenerateNotConnected(t *testing.T) {
	e := newEnv(t, false)

	status, out := e.post(t, scenario)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]string{"send_image": "FAILED"}, out)
	assert.Equal(t, 1, e.images(t), "image is kept when the picture step is never reached")
}

func TestGenerateSendFailure(t *testing.T) {
	e := newEnv(t, true)
	e.ctrl.Result = 1

	_, out := e.post(t, `{"text": "x"}`)
	assert.Equal(t, "FAILED", out["send_image"])
}

func TestGenerateDefaultsAndStringNumbers(t *testing.T) {
	e := newEnv(t, true)

	status, out := e.post(t, `{"text": "hi", "alignment": "top", "font_size": "14", "led_ip": "192.168.178.152", "led_port": "5200"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", out["send_image"])

	status, out = e.post(t, `{}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", out["send_image"])
}

func TestGenerateBadRequests(t *testing.T) {
	e := newEnv(t, true)

	for _, body := range []string{
		`not json`,
		`{"led_ip": "192.168.156"}`,
		`{"led_port": 70000}`,
		`{"led_width": 0}`,
		`{"led_port": "abc"}`,
		`{"font_size": 0}`,
	} {
		status, out := e.post(t, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.NotEmpty(t, out["error"], body)
	}
	assert.Empty(t, e.ctrl.Calls(), "no controller call for rejected requests")
}

func TestGenerateOversizedCanvas(t *testing.T) {
	e := newEnv(t, true)

	for _, body := range []string{
		`{"text": "x", "led_width": 65535, "led_height": 65535}`,
		`{"text": "x", "led_width": 8192, "led_height": 8192}`,
		`{"text": "x", "led_width": "2048", "led_height": "1025"}`,
	} {
		status, out := e.post(t, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, out["error"], "bytes", body)
	}
	assert.Empty(t, e.ctrl.Calls())
	assert.Equal(t, 0, e.images(t))
}

func TestGenerateMethod(t *testing.T) {
	e := newEnv(t, true)

	resp, err := http.Get(e.srv.URL + GeneratePath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
		D flexInt `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 5, "b": "6", "c": 7.9, "d": null}`), &v))
	assert.Equal(t, 5, v.A.Or(0))
	assert.Equal(t, 6, v.B.Or(0))
	assert.Equal(t, 7, v.C.Or(0))
	assert.Equal(t, 42, v.D.Or(42))

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a": "1.5"}`), &v))
}
