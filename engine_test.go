package tr1pd

import "testing"

func newTestEngine(t *testing.T) (*Engine, Store) {
	t.Helper()
	store := OpenMemStore()
	ltPK, ltSK, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	e, err := Start(store, NewSigningRing(ltPK, ltSK))
	if err != nil {
		t.Fatal(err)
	}
	return e, store
}

func TestEngineStartEmitsInit(t *testing.T) {
	e, store := newTestEngine(t)
	b, err := store.Get(e.Head())
	if err != nil {
		t.Fatal(err)
	}
	if b.Identifier() != KindInit {
		t.Errorf("expected engine startup to emit an Init block, got %v", b.Identifier())
	}
}

func TestEngineRestartEmitsSecondInit(t *testing.T) {
	store := OpenMemStore()
	ltPK, ltSK, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	e1, err := Start(store, NewSigningRing(ltPK, ltSK))
	if err != nil {
		t.Fatal(err)
	}
	firstHead := e1.Head()

	// A fresh process restart against the same store reuses HEAD and
	// appends a second Init, matching "every daemon start emits a fresh Init".
	e2, err := Start(store, NewSigningRing(ltPK, ltSK))
	if err != nil {
		t.Fatal(err)
	}
	if e2.Head() == firstHead {
		t.Error("expected a restart to append a new block, not reuse the old HEAD")
	}
	b, err := store.Get(e2.Head())
	if err != nil {
		t.Fatal(err)
	}
	if b.Identifier() != KindInit {
		t.Errorf("expected restart to emit a second Init, got %v", b.Identifier())
	}
	if b.Prev() != firstHead {
		t.Error("expected the second Init to chain from the first session's HEAD")
	}
}

func TestEngineInfoAndRekey(t *testing.T) {
	e, store := newTestEngine(t)

	infoPtr, err := e.Info([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Get(infoPtr)
	if err != nil {
		t.Fatal(err)
	}
	if msg, ok := b.Message(); !ok || string(msg) != "hello" {
		t.Errorf("unexpected info message: %q (ok=%v)", msg, ok)
	}

	rekeyPtr, err := e.Rekey()
	if err != nil {
		t.Fatal(err)
	}
	if rekeyPtr != e.Head() {
		t.Error("expected Rekey to advance HEAD")
	}
	rb, err := store.Get(rekeyPtr)
	if err != nil {
		t.Fatal(err)
	}
	if rb.Identifier() != KindRekey {
		t.Errorf("expected KindRekey, got %v", rb.Identifier())
	}
}

func TestEngineRecipeInfoTriggersTrailingRekey(t *testing.T) {
	e, store := newTestEngine(t)

	ptr, err := e.Recipe(RecipeInfo{Bytes: []byte("audited event")})
	if err != nil {
		t.Fatal(err)
	}
	trailing, err := store.Get(ptr)
	if err != nil {
		t.Fatal(err)
	}
	if trailing.Identifier() != KindRekey {
		t.Errorf("expected RecipeInfo's returned pointer to be the trailing Rekey, got %v", trailing.Identifier())
	}
	infoBlock, err := store.Get(trailing.Prev())
	if err != nil {
		t.Fatal(err)
	}
	if infoBlock.Identifier() != KindInfo {
		t.Errorf("expected the trailing Rekey's parent to be the Info block, got %v", infoBlock.Identifier())
	}
	if msg, ok := infoBlock.Message(); !ok || string(msg) != "audited event" {
		t.Errorf("unexpected info message: %q (ok=%v)", msg, ok)
	}
}

func TestEngineRecipeRekey(t *testing.T) {
	e, store := newTestEngine(t)
	ptr, err := e.Recipe(RecipeRekey{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Get(ptr)
	if err != nil {
		t.Fatal(err)
	}
	if b.Identifier() != KindRekey {
		t.Errorf("expected KindRekey, got %v", b.Identifier())
	}
}
