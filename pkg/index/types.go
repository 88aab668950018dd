package index

// EntryFlags is the 16-bit flags field of an index entry:
//
//	bit 15     assume-valid
//	bit 14     extended (must be 0 in version 2)
//	bits 13-12 merge stage
//	bits 11-0  path length, capped at 0xFFF
type EntryFlags uint16

const (
	FlagAssumeValidMask    EntryFlags = 0x8000
	FlagExtendedMask       EntryFlags = 0x4000
	FlagStageShift                    = 12
	FlagStageMask          EntryFlags = 0x3000
	FlagFilenameLengthMask EntryFlags = 0x0FFF
	MaxFilenameLength                 = 0x0FFF
)

// NewEntryFlags packs the flag fields.
func NewEntryFlags(assumeValid bool, stage uint8, filenameLen int) EntryFlags {
	var flags EntryFlags
	if assumeValid {
		flags |= FlagAssumeValidMask
	}
	flags |= EntryFlags(stage&0x3) << FlagStageShift
	flags |= EntryFlags(min(filenameLen, MaxFilenameLength))
	return flags
}

func (f EntryFlags) AssumeValid() bool   { return f&FlagAssumeValidMask != 0 }
func (f EntryFlags) Extended() bool      { return f&FlagExtendedMask != 0 }
func (f EntryFlags) Stage() uint8        { return uint8((f & FlagStageMask) >> FlagStageShift) }
func (f EntryFlags) FilenameLength() int { return int(f & FlagFilenameLengthMask) }

// Binary layout of an entry.
const (
	// statSize is the ten 32-bit stat fields before the object id.
	statSize          = 40
	flagsSize         = 2
	alignmentBoundary = 8
)

// File format.
const (
	Signature  = "DIRC"
	Version    = 2
	headerSize = 12
)

// fixedSize is everything in an entry before the path.
func fixedSize(idSize int) int { return statSize + idSize + flagsSize }
