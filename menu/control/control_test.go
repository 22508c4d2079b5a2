package control

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"oledmenu/hal"
	"oledmenu/menu/server"
)

type fakeTarget struct {
	mode  server.Mode
	text  string
	calls []string
	err   error
}

func (f *fakeTarget) EnableStats() error {
	f.calls = append(f.calls, "on")
	return f.err
}

func (f *fakeTarget) DisableStats() error {
	f.calls = append(f.calls, "off")
	return f.err
}

func (f *fakeTarget) SetText(text string) error {
	f.calls = append(f.calls, "text")
	f.text = text
	return f.err
}

func (f *fakeTarget) Mode() server.Mode { return f.mode }

type fakePresser struct{ pressed []hal.Button }

func (p *fakePresser) Press(b hal.Button) { p.pressed = append(p.pressed, b) }

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestStatsRoutes(t *testing.T) {
	tgt := &fakeTarget{}
	h := New("", tgt, nil, nil).Handler()

	if rec := get(t, h, http.MethodGet, "/stats/off"); rec.Code != http.StatusOK || rec.Body.String() != "stats disabled" {
		t.Fatalf("/stats/off = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, h, http.MethodGet, "/stats/on"); rec.Code != http.StatusOK || rec.Body.String() != "stats enabled" {
		t.Fatalf("/stats/on = %d %q", rec.Code, rec.Body.String())
	}
	if strings.Join(tgt.calls, ",") != "off,on" {
		t.Fatalf("calls = %v", tgt.calls)
	}
}

func TestTextRouteSplitsLines(t *testing.T) {
	tgt := &fakeTarget{}
	h := New("", tgt, nil, nil).Handler()
	rec := get(t, h, http.MethodGet, "/text/hello%20there%5Cnline%202")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if tgt.text != "hello there\nline 2" {
		t.Fatalf("text = %q", tgt.text)
	}
}

func TestBusyIsUnavailable(t *testing.T) {
	tgt := &fakeTarget{err: server.ErrBusy}
	h := New("", tgt, nil, nil).Handler()
	if rec := get(t, h, http.MethodGet, "/stats/on"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", rec.Code)
	}
}

func TestPress(t *testing.T) {
	p := &fakePresser{}
	h := New("", &fakeTarget{}, p, nil).Handler()

	if rec := get(t, h, http.MethodPost, "/press/center"); rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if rec := get(t, h, http.MethodPost, "/press/sideways"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad button code = %d", rec.Code)
	}
	if rec := get(t, h, http.MethodGet, "/press/up"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET press code = %d", rec.Code)
	}
	if len(p.pressed) != 1 || p.pressed[0] != hal.ButtonCenter {
		t.Fatalf("pressed = %v", p.pressed)
	}

	h = New("", &fakeTarget{}, nil, nil).Handler()
	if rec := get(t, h, http.MethodPost, "/press/up"); rec.Code != http.StatusNotImplemented {
		t.Fatalf("hardware press code = %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	h := New("", &fakeTarget{mode: server.ModeMenu}, nil, nil).Handler()
	rec := get(t, h, http.MethodGet, "/status")
	var st status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Mode != "menu" {
		t.Fatalf("mode = %q, want menu", st.Mode)
	}
}

func TestFramePNG(t *testing.T) {
	s := New("", &fakeTarget{}, nil, nil)
	h := s.Handler()
	if rec := get(t, h, http.MethodGet, "/frame"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code before first frame = %d", rec.Code)
	}

	b := hal.NewBitmap(128, 32)
	b.Set(0, 0, true)
	s.Publish(b)
	rec := get(t, h, http.MethodGet, "/frame?scale=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if got := img.Bounds().Dx(); got != 256 {
		t.Fatalf("width = %d, want 256", got)
	}
	if rec := get(t, h, http.MethodGet, "/frame?scale=99"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad scale code = %d", rec.Code)
	}
}

func TestFrameStream(t *testing.T) {
	s := New("", &fakeTarget{}, nil, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/frame"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(time.Millisecond)
	}

	b := hal.NewBitmap(16, 8)
	b.Set(3, 2, true)
	s.Publish(b)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message type = %d", kind)
	}
	var got hal.Bitmap
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !got.At(3, 2) || got.At(0, 0) {
		t.Fatal("frame pixels differ")
	}
}
