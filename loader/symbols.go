package loader

import (
	"sort"

	"github.com/sarchlab/mipsim/emu"
)

// SymbolTable maps labels to code and data addresses.
type SymbolTable struct {
	addrs map[string]uint64
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{addrs: make(map[string]uint64)}
}

// Add registers name as naming addr. A name can be added only once.
func (t *SymbolTable) Add(name string, addr uint64) error {
	if _, ok := t.addrs[name]; ok {
		return emu.StaticErrorf("Label %q is defined more than once", name)
	}
	t.addrs[name] = addr
	return nil
}

// Has reports whether name is defined.
func (t *SymbolTable) Has(name string) bool {
	_, ok := t.addrs[name]
	return ok
}

// Lookup returns the address named by name.
func (t *SymbolTable) Lookup(name string) (uint64, bool) {
	addr, ok := t.addrs[name]
	return addr, ok
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.addrs)
}

// Names returns all symbols sorted by address, then by name.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.addrs))
	for name := range t.addrs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := t.addrs[names[i]], t.addrs[names[j]]
		if ai != aj {
			return ai < aj
		}
		return names[i] < names[j]
	})
	return names
}
