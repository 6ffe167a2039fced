package hub

import "github.com/alxayo/fcast-core/internal/wire"

// playlist is the hub's notion of a queue of media items plus a cursor
// into it. A bare Play (no enclosing playlist content) is modeled as a
// single-item playlist so navigation always has one code path.
type playlist struct {
	items  []wire.MediaItem
	cursor int
}

func newPlaylist() *playlist { return &playlist{cursor: -1} }

func (p *playlist) setSingle(item wire.MediaItem) {
	p.items = []wire.MediaItem{item}
	p.cursor = 0
}

func (p *playlist) setItems(items []wire.MediaItem, offset int) {
	p.items = items
	if offset < 0 || offset >= len(items) {
		offset = 0
	}
	p.cursor = offset
}

func (p *playlist) current() (wire.MediaItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return wire.MediaItem{}, false
	}
	return p.items[p.cursor], true
}

// selectIndex moves the cursor to index, reporting changed=false when index
// already was the cursor so a caller can skip re-loading and re-broadcasting
// an item that is already current (two consecutive SetPlaylistItem(i) calls
// with the same i must yield exactly one load).
func (p *playlist) selectIndex(index int) (item wire.MediaItem, ok bool, changed bool) {
	if index < 0 || index >= len(p.items) {
		return wire.MediaItem{}, false, false
	}
	changed = index != p.cursor
	p.cursor = index
	return p.items[index], true, changed
}

// advance moves to the next item, reporting false if already at the end.
func (p *playlist) advance() (wire.MediaItem, bool) {
	item, ok, _ := p.selectIndex(p.cursor + 1)
	return item, ok
}
