package vectordb

import "testing"

func TestObjectText(t *testing.T) {
	obj := Object{Properties: map[string]any{"title": "Cats", "body": "", "n": 3, "extra": "ignored"}}
	if got := ObjectText(obj, []string{"title", "body", "n"}); got != "Cats" {
		t.Errorf("ObjectText() = %q, want Cats", got)
	}
	obj.Properties["body"] = "purr"
	if got := ObjectText(obj, []string{"title", "body"}); got != "Cats\npurr" {
		t.Errorf("ObjectText() = %q", got)
	}
}

func TestOpen(t *testing.T) {
	client, err := Open(Options{Backend: BackendChromem}, nil)
	if err != nil {
		t.Fatalf("Open(chromem) error = %v", err)
	}
	if _, ok := client.(*ChromemClient); !ok {
		t.Errorf("Open(chromem) = %T, want *ChromemClient", client)
	}
	_ = client.Close()

	if _, err := Open(Options{Backend: "weaviate"}, nil); err == nil {
		t.Error("Open() with unknown backend should fail")
	}
}
