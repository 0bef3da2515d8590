// Package dom provides the document model the filter engine operates on:
// a parsed HTML tree plus the host-page services the engine relies on,
// which are structural-change observers, a virtual location, click dispatch
// and per-element layout metrics.
package dom

import (
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Rect is the rendered bounding box of an element, in pixels
type Rect struct {
	Width  int
	Height int
}

// Mutation is a batch of nodes structurally added to the document.
// Text-only changes do not produce mutations; callers that recycle a
// container's text must rely on periodic revision instead.
type Mutation struct {
	Added []*html.Node
}

// ObserverFunc receives mutation batches. It is invoked synchronously on the
// goroutine performing the mutation.
type ObserverFunc func(Mutation)

// Document wraps a parsed HTML tree.
//
// The tree itself is not synchronized; callers serialize structural access.
// Observer, handler, metric and location bookkeeping is locked so a polling
// goroutine can read the location while another navigates.
type Document struct {
	root *html.Node
	body *html.Node

	mu        sync.RWMutex
	observers map[int]ObserverFunc
	nextObs   int
	handlers  map[*html.Node][]func()
	metrics   map[*html.Node]Rect
	location  string
	navChans  map[int]chan string
	nextNav   int
}

// Parse reads an HTML document
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{
		root:      root,
		observers: make(map[int]ObserverFunc),
		handlers:  make(map[*html.Node][]func()),
		metrics:   make(map[*html.Node]Rect),
		navChans:  make(map[int]chan string),
	}
	d.body = findTag(root, "body")
	return d, nil
}

// ParseString is a convenience wrapper around Parse
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func findTag(n *html.Node, tag string) *html.Node {
	if IsElement(n) && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// Root returns the document root node
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or the root if the document has none
func (d *Document) Body() *html.Node {
	if d.body != nil {
		return d.body
	}
	return d.root
}

// Render writes the document as HTML
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// RenderString returns the document as HTML
func (d *Document) RenderString() (string, error) {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// QueryAll returns sel matches in the whole document
func (d *Document) QueryAll(sel cascadia.Selector) []*html.Node {
	return sel.MatchAll(d.Body())
}

// Contains reports whether n is still attached to the document tree
func (d *Document) Contains(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// AppendChild attaches child under parent and notifies observers
func (d *Document) AppendChild(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	parent.AppendChild(child)
	d.notify(Mutation{Added: []*html.Node{child}})
}

// Remove detaches n from the tree and drops its handlers and metrics.
// Removals are not observable; the engine tracks them through revision.
func (d *Document) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)

	d.mu.Lock()
	defer d.mu.Unlock()
	var forget func(*html.Node)
	forget = func(n *html.Node) {
		delete(d.handlers, n)
		delete(d.metrics, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			forget(c)
		}
	}
	forget(n)
}

// SetText replaces the content of n with a single text node. Deliberately
// silent: character-data changes are outside the observed mutation scope.
func (d *Document) SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Observe registers a structural-change observer and returns its id
func (d *Document) Observe(fn ObserverFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextObs++
	d.observers[d.nextObs] = fn
	return d.nextObs
}

// Disconnect removes a previously registered observer
func (d *Document) Disconnect(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.observers, id)
}

func (d *Document) notify(m Mutation) {
	d.mu.RLock()
	fns := make([]ObserverFunc, 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		fn(m)
	}
}

// OnClick registers a click handler for n
func (d *Document) OnClick(n *html.Node, fn func()) {
	if n == nil || fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[n] = append(d.handlers[n], fn)
}

// ClearClick removes all click handlers for n
func (d *Document) ClearClick(n *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, n)
}

// ClickHandlerCount returns the number of handlers registered on n
func (d *Document) ClickHandlerCount(n *html.Node) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[n])
}

// Click dispatches a click on n to its registered handlers
func (d *Document) Click(n *html.Node) {
	d.mu.RLock()
	fns := make([]func(), len(d.handlers[n]))
	copy(fns, d.handlers[n])
	d.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// SetBoundingBox records explicit layout metrics for n
func (d *Document) SetBoundingBox(n *html.Node, width, height int) {
	if n == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics[n] = Rect{Width: width, Height: height}
}

// BoundingBox returns the layout metrics for n, falling back to the
// element's width/height attributes. Unknown elements have a zero box.
func (d *Document) BoundingBox(n *html.Node) Rect {
	d.mu.RLock()
	r, ok := d.metrics[n]
	d.mu.RUnlock()
	if ok {
		return r
	}

	w, _ := strconv.Atoi(Attr(n, "width"))
	h, _ := strconv.Atoi(Attr(n, "height"))
	return Rect{Width: w, Height: h}
}

// Location returns the current virtual location
func (d *Document) Location() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.location
}

// SetLocation changes the virtual location without emitting a navigation
// event, the way client-side route changes typically go unannounced.
// Detection then depends on polling.
func (d *Document) SetLocation(loc string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = loc
}

// Navigate changes the virtual location and emits a navigation event
func (d *Document) Navigate(loc string) {
	d.mu.Lock()
	d.location = loc
	chans := make([]chan string, 0, len(d.navChans))
	for _, ch := range d.navChans {
		chans = append(chans, ch)
	}
	d.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- loc:
		default: // slow consumer falls back to polling
		}
	}
}

// NavigationEvents returns a channel carrying explicit navigation events,
// plus the id to release it with
func (d *Document) NavigationEvents() (<-chan string, int) {
	ch := make(chan string, 8)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextNav++
	d.navChans[d.nextNav] = ch
	return ch, d.nextNav
}

// DisconnectNavigation removes a navigation channel registered by
// NavigationEvents
func (d *Document) DisconnectNavigation(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.navChans, id)
}

// NavigationListenerCount returns the number of registered navigation channels
func (d *Document) NavigationListenerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.navChans)
}
