package draftcli

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/draftsync/draftsync/common"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := []byte(`{"method":"edit_open"}`)
	go func() {
		if err := writeFrame(client, payload); err != nil {
			t.Errorf("writeFrame: %v", err)
		}
	}()

	got, err := readFrame(server)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestReadRejectsOversizedFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		var head [4]byte
		binary.LittleEndian.PutUint32(head[:], uint32(common.MaxMessageSize)+1)
		client.Write(head[:])
	}()

	if _, err := readFrame(server); err == nil {
		t.Error("expected error for oversized frame")
	}
}

func TestFrameHeaderLittleEndian(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		if err := writeFrame(client, []byte("abc")); err != nil {
			t.Errorf("writeFrame: %v", err)
		}
	}()

	buf := make([]byte, 7)
	if _, err := io.ReadFull(server, buf); err != nil {
		t.Fatalf("read raw frame: %v", err)
	}
	if want := []byte{3, 0, 0, 0, 'a', 'b', 'c'}; !bytes.Equal(buf, want) {
		t.Errorf("wire bytes %v, want %v", buf, want)
	}
}

// serveOne reads a single request from conn and replies with resp.
func serveOne(t *testing.T, conn net.Conn, resp *Response) {
	t.Helper()
	go func() {
		if _, err := readFrame(conn); err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		buf, err := json.Marshal(resp)
		if err != nil {
			t.Errorf("server marshal: %v", err)
			return
		}
		if err := writeFrame(conn, buf); err != nil {
			t.Errorf("server write: %v", err)
		}
	}()
}

func TestInvokeResult(t *testing.T) {
	cc, sc := net.Pipe()
	defer sc.Close()
	c := NewClientForTesting(cc)
	defer c.Close()

	msg, _ := json.Marshal(&common.EditStatusResponse{SessionId: "s1", Status: "saved"})
	serveOne(t, sc, &Response{
		Ok:     true,
		Update: &Update{Type: common.UPDATE_EDIT_STATUS, Message: msg},
	})

	st, err := c.Status("s1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.SessionId != "s1" || st.Status != "saved" {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestInvokeError(t *testing.T) {
	cc, sc := net.Pipe()
	defer sc.Close()
	c := NewClientForTesting(cc)
	defer c.Close()

	serveOne(t, sc, &Response{Ok: false, Error: "session not found"})

	if _, err := c.Status("nope"); err == nil || err.Error() != "session not found" {
		t.Errorf("expected session not found error, got %v", err)
	}
}

func TestDispatcherRoutesUpdate(t *testing.T) {
	d := &Dispatcher{Handlers: map[common.UpdateType]Handler{}}
	var got *common.SessionUpdate
	d.Handlers[common.UPDATE_SESSION] = NewSessionUpdateHandler("", func(u *common.SessionUpdate) error {
		got = u
		return nil
	})

	msg, _ := json.Marshal(&common.SessionUpdate{SessionId: "s1", Action: common.SaveComplete, Version: "7"})
	buf, _ := json.Marshal(&Response{
		Ok:     true,
		Update: &Update{Type: common.UPDATE_SESSION, Message: msg},
	})
	if err := d.process(buf); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got == nil || got.Version != "7" {
		t.Errorf("handler not invoked correctly: %+v", got)
	}
}

func TestSessionUpdateHandlerFiltersAction(t *testing.T) {
	called := false
	h := NewSessionUpdateHandler(common.SaveComplete, func(u *common.SessionUpdate) error {
		called = true
		return nil
	})

	msg, _ := json.Marshal(&common.SessionUpdate{SessionId: "s1", Action: common.SaveStatus})
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if called {
		t.Error("callback invoked for filtered action")
	}

	msg, _ = json.Marshal(&common.SessionUpdate{SessionId: "s1", Action: common.SaveComplete})
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !called {
		t.Error("callback not invoked for matching action")
	}
}

func TestListenStopsOnDisconnect(t *testing.T) {
	cc, sc := net.Pipe()
	defer sc.Close()
	c := NewClientForTesting(cc)
	c.RegisterHandler(common.UPDATE_SESSION, NewSessionUpdateHandler("", func(u *common.SessionUpdate) error {
		return ErrDisconnect
	}))

	done := make(chan error, 1)
	go func() { done <- c.Listen() }()

	msg, _ := json.Marshal(&common.SessionUpdate{SessionId: "s1", Action: common.SaveStatus})
	buf, _ := json.Marshal(&Response{
		Ok:     true,
		Update: &Update{Type: common.UPDATE_SESSION, Message: msg},
	})
	if err := writeFrame(sc, buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Listen returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not stop on ErrDisconnect")
	}
}
