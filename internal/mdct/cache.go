package mdct

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheSize covers every legal block size from 64 to 8192.
const cacheSize = 8

var cache *lru.Cache[int, *MDCT]

func init() {
	c, err := lru.New[int, *MDCT](cacheSize)
	if err != nil {
		panic(err)
	}
	cache = c
}

// Get returns the shared transform for block size n, building it on first
// use. When two goroutines build the same size at once, the first one to
// insert it wins and the other transform is discarded.
func Get(n int) *MDCT {
	if m, ok := cache.Get(n); ok {
		return m
	}
	m := New(n)
	if prev, ok, _ := cache.PeekOrAdd(n, m); ok {
		return prev
	}
	return m
}
