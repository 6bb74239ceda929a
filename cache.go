// github.com/jkseppan/dviread - a reader for TeX DVI, TFM and VF files
// Copyright (C) 2024  The dviread Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package dvi

import "container/list"

// lruCache is a bounded cache from absolute filename to a parsed Tfm or
// VF value. A loader keeps one of these per value type so that drawing
// the same glyph many times across a document's pages does not re-read
// and re-parse its font file on every occurrence.
//
// Not safe for concurrent use; callers that need multi-goroutine access
// must serialize their own calls, as for the rest of this package.
type lruCache[K comparable, V any] struct {
	capacity int
	order    *list.List
	index    map[K]*list.Element
}

type cacheEntry[K comparable, V any] struct {
	key K
	val V
}

func newLRUCache[K comparable, V any](capacity int) *lruCache[K, V] {
	return &lruCache[K, V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element, capacity),
	}
}

// Get looks up key and, on a hit, promotes it to most-recently-used.
func (l *lruCache[K, V]) Get(key K) (V, bool) {
	elem, ok := l.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	l.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry[K, V]).val, true
}

// Put records val under key, evicting the least-recently-used filename
// if the cache is now over capacity. Re-inserting an existing key
// refreshes its value and its position without growing the cache.
func (l *lruCache[K, V]) Put(key K, val V) {
	if l.capacity <= 0 {
		return
	}
	if elem, ok := l.index[key]; ok {
		elem.Value.(*cacheEntry[K, V]).val = val
		l.order.MoveToFront(elem)
		return
	}

	elem := l.order.PushFront(&cacheEntry[K, V]{key: key, val: val})
	l.index[key] = elem
	if l.order.Len() <= l.capacity {
		return
	}

	oldest := l.order.Back()
	l.order.Remove(oldest)
	delete(l.index, oldest.Value.(*cacheEntry[K, V]).key)
}
