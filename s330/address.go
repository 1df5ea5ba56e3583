package s330

import "fmt"

// RecordKind identifies a loadable record collection.
type RecordKind int

const (
	KindPatch RecordKind = iota
	KindTone
)

func (k RecordKind) String() string {
	switch k {
	case KindPatch:
		return "patch"
	case KindTone:
		return "tone"
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// The sampler's memory map. The bases and strides were verified
// against hardware; changing them breaks wire compatibility.
const (
	functionBase = 0x000000
	functionSize = 0x80

	patchBase   = 1 << 14
	patchStride = 0x100

	toneBase   = 2 << 14
	toneStride = 0x40

	NumPatches = 32
	NumTones   = 32

	// BankSize is the number of records fetched per progressive load.
	BankSize = 8
)

// NumBanks returns how many banks the collection has.
func NumBanks(kind RecordKind) int {
	switch kind {
	case KindPatch:
		return NumPatches / BankSize
	default:
		return NumTones / BankSize
	}
}

func numRecords(kind RecordKind) int {
	if kind == KindPatch {
		return NumPatches
	}
	return NumTones
}

func recordStride(kind RecordKind) int {
	if kind == KindPatch {
		return patchStride
	}
	return toneStride
}

func recordSize(kind RecordKind) int {
	if kind == KindPatch {
		return PatchDataSize
	}
	return ToneDataSize
}

// recordAddress computes the device-memory address of a record field.
func recordAddress(kind RecordKind, index, offset int) (int, error) {
	if index < 0 || index >= numRecords(kind) {
		return 0, fmt.Errorf("%s index %d out of range", kind, index)
	}
	if offset < 0 || offset >= recordSize(kind) {
		return 0, fmt.Errorf("%s offset %d out of range", kind, offset)
	}
	base := patchBase
	if kind == KindTone {
		base = toneBase
	}
	return base + index*recordStride(kind) + offset, nil
}

// Area classifies a device-memory address.
type Area int

const (
	// AreaFunction is front-panel and UI state (patch select, display
	// mode and so on), distinct from record parameters.
	AreaFunction Area = iota
	AreaPatch
	AreaTone
)

func (a Area) String() string {
	switch a {
	case AreaFunction:
		return "function"
	case AreaPatch:
		return "patch"
	case AreaTone:
		return "tone"
	default:
		return fmt.Sprintf("Area(%d)", int(a))
	}
}

// Location is the inverse of recordAddress: which area, record and
// field offset a raw address refers to. For AreaFunction, Index is
// always 0 and Offset is the offset into the function area.
type Location struct {
	Area   Area
	Index  int
	Offset int
}

// locateAddress classifies addr against the known ranges. Note that a
// stride is wider than its record, so an address in the slack past
// the end of a record matches no range.
func locateAddress(addr int) (Location, bool) {
	switch {
	case addr >= functionBase && addr < functionBase+functionSize:
		return Location{Area: AreaFunction, Offset: addr - functionBase}, true
	case addr >= patchBase && addr < patchBase+NumPatches*patchStride:
		rel := addr - patchBase
		loc := Location{Area: AreaPatch, Index: rel / patchStride, Offset: rel % patchStride}
		if loc.Offset >= PatchDataSize {
			return Location{}, false
		}
		return loc, true
	case addr >= toneBase && addr < toneBase+NumTones*toneStride:
		rel := addr - toneBase
		loc := Location{Area: AreaTone, Index: rel / toneStride, Offset: rel % toneStride}
		if loc.Offset >= ToneDataSize {
			return Location{}, false
		}
		return loc, true
	default:
		return Location{}, false
	}
}
