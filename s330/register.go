package s330

// Register represents a single front-panel function register.
type Register struct {
	Name          string
	Address, Size int
	Min, Max      int
	Zero          int
}

// The function-area registers the sampler reports front-panel edits
// for. Offsets are relative to the start of the function area.
var (
	FuncPatchSelect = &Register{"patch-select", functionBase + 0x00, 1, 0, NumPatches - 1, 0}
	FuncToneSelect  = &Register{"tone-select", functionBase + 0x01, 1, 0, NumTones - 1, 0}
	FuncDisplayMode = &Register{"display-mode", functionBase + 0x02, 1, 0, 4, 0}
	MasterLevel     = &Register{"master-level", functionBase + 0x10, 1, 0, 0x7f, 0}
	MasterTune      = &Register{"master-tune", functionBase + 0x11, 1, -64, 63, 0x40}
)

// Registers lists every known function register, for name lookup.
var Registers = []*Register{
	FuncPatchSelect,
	FuncToneSelect,
	FuncDisplayMode,
	MasterLevel,
	MasterTune,
}

// RegisterByName returns the register with the given name, or nil.
func RegisterByName(name string) *Register {
	for _, r := range Registers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func clamp(x, min, max int) int {
	switch {
	case x < min:
		return min
	case x > max:
		return max
	default:
		return x
	}
}

// Set returns a DT1 command setting the register to the given value.
func (r *Register) Set(device DeviceID, value int) []byte {
	value = clamp(value, r.Min, r.Max) + r.Zero
	bytes := []byte{
		byte(value & 0x7f),
		byte((value >> 7) & 0x7f),
		byte((value >> 14) & 0x7f),
	}
	return DataSet(device, r.Address, bytes[:r.Size]...)
}
