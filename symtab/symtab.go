// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package symtab reads static variables and type layouts from the DWARF
// debug information of a kernel image, and renders byte offsets within
// them as field paths.
package symtab // import "github.com/mtrace-tools/lockinfer/symtab"

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"io"

	lru "github.com/elastic/go-freelru"
	log "github.com/sirupsen/logrus"

	"github.com/mtrace-tools/lockinfer/libpf"
)

// ErrNoDWARF is returned for images without usable debug information.
var ErrNoDWARF = errors.New("image has no DWARF debug information")

const (
	// offsetNameCacheSize is the number of rendered offsets kept.
	offsetNameCacheSize = 4096
	// symbolCacheSize is the number of resolved variables and types kept.
	symbolCacheSize = 1024
)

// opAddr is DW_OP_addr, the only location expression static variables are
// expected to use.
const opAddr = 0x03

type variable struct {
	name string
	addr libpf.Address
	typ  dwarf.Offset
}

type offsetName struct {
	name string
	ok   bool
}

type resolvedSymbol struct {
	root string
	typ  dwarf.Type
}

// Image is the symbol and type information of one binary. It is not safe
// for concurrent use.
type Image struct {
	closer io.Closer
	dd     *dwarf.Data

	indexed bool
	vars    map[dwarf.Offset]variable
	order   []dwarf.Offset
	types   map[string]dwarf.Offset
	names   map[dwarf.Offset]string

	offsetNames *lru.LRU[libpf.SymbolOffset, offsetName]
	symbols     *lru.LRU[libpf.SymbolID, resolvedSymbol]
}

// Open loads the DWARF data of the ELF file at path.
func Open(path string) (*Image, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	dd, err := ef.DWARF()
	if err != nil {
		_ = ef.Close()
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNoDWARF, err)
	}
	im, err := NewFromDWARF(dd)
	if err != nil {
		_ = ef.Close()
		return nil, err
	}
	im.closer = ef
	return im, nil
}

// NewFromDWARF returns an Image backed by already loaded DWARF data.
func NewFromDWARF(dd *dwarf.Data) (*Image, error) {
	if dd == nil {
		return nil, ErrNoDWARF
	}
	offsetNames, err := lru.New[libpf.SymbolOffset, offsetName](offsetNameCacheSize,
		libpf.SymbolOffset.Hash32)
	if err != nil {
		return nil, err
	}
	symbols, err := lru.New[libpf.SymbolID, resolvedSymbol](symbolCacheSize,
		libpf.SymbolID.Hash32)
	if err != nil {
		return nil, err
	}
	return &Image{dd: dd, offsetNames: offsetNames, symbols: symbols}, nil
}

// Close releases the underlying file.
func (im *Image) Close() error {
	if im.closer != nil {
		return im.closer.Close()
	}
	return nil
}

// index walks all debug-info entries once, recording static variables and
// named types.
func (im *Image) index() error {
	if im.indexed {
		return nil
	}

	im.vars = make(map[dwarf.Offset]variable)
	im.types = make(map[string]dwarf.Offset)
	im.names = make(map[dwarf.Offset]string)
	typedefs := make(map[string]dwarf.Offset)
	decls := make(map[dwarf.Offset]variable)

	r := im.dd.Reader()
	for {
		ent, err := r.Next()
		if err != nil {
			return fmt.Errorf("failed to read DWARF: %w", err)
		}
		if ent == nil {
			break
		}

		name, _ := ent.Val(dwarf.AttrName).(string)
		isDecl, _ := ent.Val(dwarf.AttrDeclaration).(bool)

		switch ent.Tag {
		case dwarf.TagStructType, dwarf.TagUnionType, dwarf.TagClassType,
			dwarf.TagBaseType, dwarf.TagEnumerationType:
			if name == "" || isDecl {
				break
			}
			im.names[ent.Offset] = name
			if _, ok := im.types[name]; !ok {
				im.types[name] = ent.Offset
			}
		case dwarf.TagTypedef:
			if name == "" {
				break
			}
			im.names[ent.Offset] = name
			if _, ok := typedefs[name]; !ok {
				typedefs[name] = ent.Offset
			}
		case dwarf.TagVariable:
			typ, _ := ent.Val(dwarf.AttrType).(dwarf.Offset)
			if isDecl {
				decls[ent.Offset] = variable{name: name, typ: typ}
				break
			}
			addr, ok := locationAddr(ent, r)
			if !ok {
				break
			}
			if spec, ok := ent.Val(dwarf.AttrSpecification).(dwarf.Offset); ok {
				if d, ok := decls[spec]; ok {
					if name == "" {
						name = d.name
					}
					if typ == 0 {
						typ = d.typ
					}
				}
			}
			if name == "" || typ == 0 {
				break
			}
			im.vars[ent.Offset] = variable{name: name, addr: addr, typ: typ}
			im.names[ent.Offset] = name
			im.order = append(im.order, ent.Offset)
		}
	}

	// A struct and a typedef may share a name; the struct wins.
	for name, off := range typedefs {
		if _, ok := im.types[name]; !ok {
			im.types[name] = off
		}
	}

	im.indexed = true
	log.Debugf("Indexed %d static variables and %d named types", len(im.vars), len(im.types))
	return nil
}

// locationAddr returns the address of a variable located with a single
// DW_OP_addr expression.
func locationAddr(ent *dwarf.Entry, r *dwarf.Reader) (libpf.Address, bool) {
	loc, ok := ent.Val(dwarf.AttrLocation).([]byte)
	if !ok || len(loc) != 1+r.AddressSize() || loc[0] != opAddr {
		return 0, false
	}
	switch r.AddressSize() {
	case 4:
		return libpf.Address(r.ByteOrder().Uint32(loc[1:])), true
	case 8:
		return libpf.Address(r.ByteOrder().Uint64(loc[1:])), true
	}
	return 0, false
}

// Variables returns every static variable with a fixed address and a sized
// type, in debug-info order.
func (im *Image) Variables() ([]libpf.Variable, error) {
	if err := im.index(); err != nil {
		return nil, err
	}
	vars := make([]libpf.Variable, 0, len(im.order))
	for _, off := range im.order {
		v := im.vars[off]
		typ, err := im.dd.Type(v.typ)
		if err != nil {
			log.Debugf("Skipping variable %s: %v", v.name, err)
			continue
		}
		if _, ok := typ.(*dwarf.UnspecifiedType); ok {
			continue
		}
		size := typ.Size()
		if size <= 0 {
			continue
		}
		vars = append(vars, libpf.Variable{
			ID:   libpf.SymbolID(off),
			Name: v.name,
			Addr: v.addr,
			Size: uint64(size),
			Type: libpf.SymbolID(v.typ),
		})
	}
	return vars, nil
}

// TypeByName returns the named struct, union, base type or typedef called
// name. Structs and unions take precedence over typedefs.
func (im *Image) TypeByName(name string) (libpf.SymbolID, bool) {
	if err := im.index(); err != nil {
		log.Errorf("Type lookup of %s failed: %v", name, err)
		return 0, false
	}
	off, ok := im.types[name]
	return libpf.SymbolID(off), ok
}

// Name returns the name of a variable or named type.
func (im *Image) Name(id libpf.SymbolID) (string, bool) {
	if err := im.index(); err != nil {
		return "", false
	}
	name, ok := im.names[dwarf.Offset(id)]
	return name, ok
}

// resolve returns the display root and type of id, which may refer to a
// variable or a type.
func (im *Image) resolve(id libpf.SymbolID) (string, dwarf.Type, error) {
	if rs, ok := im.symbols.Get(id); ok {
		return rs.root, rs.typ, nil
	}
	if err := im.index(); err != nil {
		return "", nil, err
	}

	var rs resolvedSymbol
	off := dwarf.Offset(id)
	if v, ok := im.vars[off]; ok {
		typ, err := im.dd.Type(v.typ)
		if err != nil {
			return "", nil, err
		}
		rs = resolvedSymbol{root: v.name, typ: typ}
	} else {
		typ, err := im.dd.Type(off)
		if err != nil {
			return "", nil, err
		}
		rs = resolvedSymbol{root: typeName(typ), typ: typ}
	}
	im.symbols.Add(id, rs)
	return rs.root, rs.typ, nil
}

// TypeSize returns the byte size of a type, or of the type of a variable.
func (im *Image) TypeSize(id libpf.SymbolID) (int64, bool) {
	_, typ, err := im.resolve(id)
	if err != nil {
		return 0, false
	}
	return typ.Size(), typ.Size() >= 0
}

// OffsetName renders byte offset off within id as a field path such as
// "mm_struct.mmap_sem.count" or "init_mm.pgd". It returns false if id is
// unknown or off lies outside of it.
func (im *Image) OffsetName(id libpf.SymbolID, off uint64) (string, bool) {
	key := libpf.SymbolOffset{ID: id, Offset: off}
	if cached, ok := im.offsetNames.Get(key); ok {
		return cached.name, cached.ok
	}

	var res offsetName
	root, typ, err := im.resolve(id)
	if err == nil {
		res.name, res.ok = offsetPath(root, typ, off)
	} else {
		log.Debugf("Unable to resolve symbol %d: %v", uint64(id), err)
	}
	im.offsetNames.Add(key, res)
	return res.name, res.ok
}
