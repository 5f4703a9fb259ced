package tr1pd

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	cases := []CtlRequest{
		ReqPing{},
		ReqWrite{Recipe: RecipeRekey{}},
		ReqWrite{Recipe: RecipeInfo{Bytes: []byte("payload")}},
	}
	for _, req := range cases {
		buf, err := EncodeRequest(req)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := DecodeRequest(buf)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(decoded, req) {
			t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, req)
		}
	}
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	cases := []CtlResponse{
		RespPong{},
		RespAck{Pointer: HashPointer([]byte("x"))},
		RespNack{},
	}
	for _, resp := range cases {
		buf, err := EncodeResponse(resp)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := DecodeResponse(buf)
		if err != nil {
			t.Fatal(err)
		}
		if decoded != resp {
			t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, resp)
		}
	}
}

func TestDecodeRequestRejectsTrailingBytes(t *testing.T) {
	buf := append([]byte{tagRequestPing}, 0x00)
	if _, err := DecodeRequest(buf); err == nil {
		t.Error("expected trailing bytes after ping to be rejected")
	}
}

func newTestServer(t *testing.T) (*Server, *Engine, string) {
	t.Helper()
	store := OpenMemStore()
	ltPK, ltSK, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	engine, err := Start(store, NewSigningRing(ltPK, ltSK))
	if err != nil {
		t.Fatal(err)
	}
	sockPath := filepath.Join(t.TempDir(), "tr1pd.sock")
	log := zerolog.Nop()
	server, err := NewServer(engine, sockPath, log)
	if err != nil {
		t.Fatal(err)
	}
	return server, engine, sockPath
}

func TestControlPingPong(t *testing.T) {
	server, _, sockPath := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)
	defer server.Close()

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.Ping(); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}

func TestControlWriteAppendsInfoAndRekey(t *testing.T) {
	server, engine, sockPath := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)
	defer server.Close()

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	headBefore := engine.Head()
	ptr, err := client.Write(RecipeInfo{Bytes: []byte("via socket")})
	if err != nil {
		t.Fatal(err)
	}
	if ptr == headBefore {
		t.Error("expected a write to advance HEAD")
	}
	rekey, err := engine.storage.Get(ptr)
	if err != nil {
		t.Fatal(err)
	}
	if rekey.Identifier() != KindRekey {
		t.Errorf("expected the acked pointer to be the trailing Rekey, got %v", rekey.Identifier())
	}
	info, err := engine.storage.Get(rekey.Prev())
	if err != nil {
		t.Fatal(err)
	}
	if msg, ok := info.Message(); info.Identifier() != KindInfo || !ok || string(msg) != "via socket" {
		t.Errorf("expected the Rekey's parent to be the Info block, got %v %q", info.Identifier(), msg)
	}
}
