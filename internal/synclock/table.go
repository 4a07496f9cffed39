package synclock

// entry is the lock state of one resource: either an exclusive writer or a
// count of shared readers, never both.
type entry struct {
	writer  bool
	readers int
}

// table maps a resource key (user id or key name) to its lock entry.
// Entries are created on first acquisition and removed when the last holder
// releases, so an absent entry always behaves as fully open.
//
// table methods are not synchronized; the owning [Manager] calls them with
// its mutex held.
type table struct {
	entries map[string]*entry
}

func newTable() *table {
	return &table{entries: make(map[string]*entry)}
}

func (t *table) isOpenForRead(key string) bool {
	e, ok := t.entries[key]
	return !ok || !e.writer
}

func (t *table) isOpenForWrite(key string) bool {
	e, ok := t.entries[key]
	return !ok || (!e.writer && e.readers == 0)
}

func (t *table) addReader(key string) {
	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	e.readers++
}

func (t *table) removeReader(key string) {
	e, ok := t.entries[key]
	if !ok {
		return
	}
	if e.readers--; e.readers <= 0 && !e.writer {
		delete(t.entries, key)
	}
}

func (t *table) addWriter(key string) {
	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	e.writer = true
}

func (t *table) removeWriter(key string) {
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.writer = false
	if e.readers == 0 {
		delete(t.entries, key)
	}
}
