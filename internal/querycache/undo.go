package querycache

// Undo reverses or confirms exactly one speculative patch. Only the first
// call to Undo or Commit has an effect.
type Undo struct {
	cache *Cache
	key   Key
	id    string
}

// Key returns the page the patch was applied to.
func (u *Undo) Key() Key {
	return u.key
}

// Undo reverts the patch. It reports whether the patch was still active.
func (u *Undo) Undo() bool {
	if u == nil {
		return false
	}
	return u.cache.settle(u.key, u.id, false)
}

// Commit makes the patch permanent. It reports whether the patch was still active.
func (u *Undo) Commit() bool {
	if u == nil {
		return false
	}
	return u.cache.settle(u.key, u.id, true)
}
