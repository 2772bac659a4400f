package grid

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRegistryLoadsOnce(t *testing.T) {
	src := newFakeTemplates()
	r := NewRegistry(src)

	if r.Loaded() {
		t.Fatal("registry should start unloaded")
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 source fetch, got %d", src.calls)
	}

	tmpl, ok := r.Get(3)
	if !ok || tmpl.Name != "Front Lit Channel Letters" {
		t.Errorf("Get(3) = %+v, %v", tmpl, ok)
	}
	if _, ok := r.Get(99); ok {
		t.Error("unknown product type should not resolve")
	}
}

func TestRegistryConcurrentLoadsShareOneFetch(t *testing.T) {
	src := newFakeTemplates()
	r := NewRegistry(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if src.calls != 1 {
		t.Errorf("expected concurrent loads to share one fetch, got %d", src.calls)
	}
}

func TestRegistryLoadErrorIsRetryable(t *testing.T) {
	src := newFakeTemplates()
	src.err = errors.New("offline")
	r := NewRegistry(src)

	if err := r.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if r.Loaded() {
		t.Fatal("registry should stay unloaded after a failed fetch")
	}

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("retry load: %v", err)
	}
	if !r.Loaded() {
		t.Error("registry should be loaded after retry")
	}
}

func TestTemplateFieldBySlot(t *testing.T) {
	tmpl := letterTemplate()
	f, ok := tmpl.FieldBySlot("field1")
	if !ok || f.Label != "Letter Height" {
		t.Errorf("FieldBySlot(field1) = %+v, %v", f, ok)
	}
	if _, ok := tmpl.FieldBySlot("field9"); ok {
		t.Error("undeclared slot should not resolve")
	}
}
