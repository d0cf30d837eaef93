package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
	"github.com/Burhanuddin-2001/WebMind/internal/infra/config"
)

// fakeRenderer implements Renderer for testing.
type fakeRenderer struct {
	text   string
	err    error
	calls  int
	gotURL string
}

func (r *fakeRenderer) Render(_ context.Context, url string) (string, error) {
	r.calls++
	r.gotURL = url
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}

func (r *fakeRenderer) Close() error { return nil }

const richPage = `<html><body><article>
Paris is the capital and largest city of France. It has been one of
Europe's major centres of finance, diplomacy, commerce, culture and
science since the seventeenth century. The city is known for its
museums and architectural landmarks.
</article></body></html>`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcherNoEscalationWhenContentRich(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, richPage)
	})

	renderer := &fakeRenderer{text: "rendered"}
	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, renderer, newTestLogger())

	pc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Status != domain.FetchOK {
		t.Errorf("Status = %q, want ok", pc.Status)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times, want 0", renderer.calls)
	}
}

func TestFetcherEscalatesThinPage(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><div id="app"></div><script>spa()</script></body></html>`)
	})

	renderer := &fakeRenderer{text: "Rendered page text with the actual content."}
	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, renderer, newTestLogger())

	pc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if renderer.calls != 1 {
		t.Fatalf("renderer called %d times, want 1", renderer.calls)
	}
	if renderer.gotURL != srv.URL {
		t.Errorf("renderer url = %q, want %q", renderer.gotURL, srv.URL)
	}
	if !pc.Rendered {
		t.Error("Rendered flag not set")
	}
	if pc.Status != domain.FetchOK {
		t.Errorf("Status = %q, want ok", pc.Status)
	}
	if pc.RawText != renderer.text {
		t.Errorf("RawText = %q, want rendered text", pc.RawText)
	}
}

func TestFetcherRendererFailureKeepsHTTPResult(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>thin</body></html>`)
	})

	renderer := &fakeRenderer{err: fmt.Errorf("browser crashed")}
	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, renderer, newTestLogger())

	pc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("renderer failure must not fail the fetch, got %v", err)
	}
	if pc.Rendered {
		t.Error("failed render must not mark the page rendered")
	}
	if !strings.Contains(pc.RawText, "thin") {
		t.Errorf("HTTP result lost: %q", pc.RawText)
	}
}

func TestFetcherRenderedEmptyBecomesFetchEmpty(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><script>x</script></body></html>`)
	})

	renderer := &fakeRenderer{text: "  \n "}
	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, renderer, newTestLogger())

	pc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Status != domain.FetchEmpty {
		t.Errorf("Status = %q, want empty", pc.Status)
	}
}

func TestFetcherNilRendererNeverEscalates(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>thin</body></html>`)
	})

	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, nil, newTestLogger())

	pc, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Status != domain.FetchOK {
		t.Errorf("Status = %q, want ok (thin but unescalated)", pc.Status)
	}
}

func TestFetcherNoEscalationOnTransportError(t *testing.T) {
	renderer := &fakeRenderer{text: "rendered"}
	f := NewFetcher(config.FetchConfig{MinContentLength: 50}, renderer, newTestLogger())

	pc, err := f.Fetch(context.Background(), "http://127.0.0.1:1/nope")
	if err != nil {
		t.Fatal(err)
	}
	if pc.Status != domain.FetchError {
		t.Errorf("Status = %q, want fetch_error", pc.Status)
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times, want 0 for transport errors", renderer.calls)
	}
}

func TestNewChromeDPRendererLazy(t *testing.T) {
	r := NewChromeDPRenderer(config.FetchConfig{BrowserHeadless: true}, newTestLogger())
	if r.started {
		t.Error("browser must not start at construction")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close before start: %v", err)
	}
}
