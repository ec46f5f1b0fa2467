package iodbuilder

import (
	"context"
	"testing"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/dochandler"
	"github.com/dcmspec/dcmspec/registry"
	"github.com/dcmspec/dcmspec/specmodel"
)

type fakeFetcher struct {
	calls int
	body  []byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	f.calls++
	return f.body, nil
}

const iodHTML = `<html><body>
<a id="table_iod"></a>
<table>
<tr><td>Patient</td><td>M</td><td>Patient</td><td>ref1</td></tr>
</table>
<div class="section">
<a id="sect_ref1"></a>
<div class="table">
<a id="table_mod1"></a>
</div>
</div>
<table><tr><td>Patient's Name</td><td>2</td></tr></table>
</body></html>`

func newBuilder(t *testing.T, body string) (*Builder, *fakeFetcher, string) {
	t.Helper()
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: []byte(body)}
	handler := &dochandler.XHTMLHandler{Fetcher: fetcher, CacheDir: dir}
	return New(handler, dir, registry.New(), nil), fetcher, dir
}

func baseOpts() Options {
	return Options{
		URL:             "http://example/part03",
		CacheFileName:   "part03.xhtml",
		IodTableID:      "table_iod",
		IodColumnToAttr: specmodel.NewColumnMap(map[int]string{0: "module", 1: "usage", 2: "ie", 3: "ref"}),
		IodNameAttr:     "module",
		Module: ModuleOptions{
			ColumnToAttr: specmodel.NewColumnMap(map[int]string{0: "elem_name", 1: "type"}),
			NameAttr:     "elem_name",
		},
	}
}

func TestBuildFromURL_GraftsModuleUnderIODNode(t *testing.T) {
	b, fetcher, _ := newBuilder(t, iodHTML)

	model, err := b.BuildFromURL(context.Background(), baseOpts())
	if err != nil {
		t.Fatalf("BuildFromURL: %v", err)
	}
	if len(model.Content.Children) != 1 {
		t.Fatalf("Content.Children: got %d, want 1", len(model.Content.Children))
	}

	iodNode := model.Content.Children[0]
	if got := iodNode.Get("ref").String(); got != "ref1" {
		t.Errorf("ref: got %q, want %q", got, "ref1")
	}
	if len(iodNode.Children) != 1 {
		t.Fatalf("iodNode.Children: got %d, want 1", len(iodNode.Children))
	}
	if got := iodNode.Children[0].Name; got != "patient_s_name" {
		t.Errorf("module node name: got %q, want %q", got, "patient_s_name")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher.calls: got %d, want 1", fetcher.calls)
	}
}

func TestBuildFromURL_RegistryAvoidsReparsingSharedModule(t *testing.T) {
	b, _, _ := newBuilder(t, iodHTML)

	if _, err := b.BuildFromURL(context.Background(), baseOpts()); err != nil {
		t.Fatalf("BuildFromURL: %v", err)
	}
	if !b.Registry.Contains("table_mod1") {
		t.Fatalf("Registry.Contains(table_mod1): got false, want true")
	}

	// A second, differently-named IOD referencing the same module must
	// reuse the registry entry rather than reparsing the DOM.
	opts := baseOpts()
	opts.JSONFileName = "table_iod2_expanded.json"
	model, err := b.BuildFromURL(context.Background(), opts)
	if err != nil {
		t.Fatalf("BuildFromURL: %v", err)
	}
	if len(model.Content.Children) != 1 {
		t.Fatalf("Content.Children: got %d, want 1", len(model.Content.Children))
	}
	if len(model.Content.Children[0].Children) != 1 {
		t.Fatalf("Content.Children[0].Children: got %d, want 1", len(model.Content.Children[0].Children))
	}
}

func TestBuildFromURL_SecondCallLoadsExpandedModelFromCache(t *testing.T) {
	b, fetcher, _ := newBuilder(t, iodHTML)

	if _, err := b.BuildFromURL(context.Background(), baseOpts()); err != nil {
		t.Fatalf("BuildFromURL: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher.calls: got %d, want 1", fetcher.calls)
	}

	model, err := b.BuildFromURL(context.Background(), baseOpts())
	if err != nil {
		t.Fatalf("BuildFromURL: %v", err)
	}
	if len(model.Content.Children) != 1 {
		t.Fatalf("Content.Children: got %d, want 1", len(model.Content.Children))
	}
	if fetcher.calls != 1 {
		t.Errorf("cached expanded model must not re-fetch the document: fetcher.calls = %d, want 1", fetcher.calls)
	}
}

func TestBuildFromURL_NoResolvableModulesIsNoModules(t *testing.T) {
	b, _, _ := newBuilder(t, `<html><body>
<a id="table_iod"></a>
<table><tr><td>Patient</td><td>M</td><td>Patient</td><td>missing_ref</td></tr></table>
</body></html>`)

	_, err := b.BuildFromURL(context.Background(), baseOpts())
	if err == nil {
		t.Fatalf("BuildFromURL: got nil error, want NoModules")
	}
	if !dcmerr.Is(err, dcmerr.NoModules) {
		t.Errorf("dcmerr.Is(err, NoModules): got false, want true (err=%v)", err)
	}
}
