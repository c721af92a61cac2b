package ttasm

import (
	"sort"
	"strings"

	"github.com/derekparker/trie"
)

// Opcode describes a TrueType instruction. Instructions with flag bits
// occupy a range of 2^ArgBits consecutive opcodes, starting at Code.
type Opcode struct {
	Mnemonic string
	Code     byte
	ArgBits  int
	Name     string
}

// Last returns the highest opcode belonging to this instruction.
func (op Opcode) Last() byte {
	return op.Code + byte(1<<op.ArgBits) - 1
}

// IsPush is true for the push instructions, which take inline data.
func (op Opcode) IsPush() bool {
	switch op.Mnemonic {
	case "PUSHB", "PUSHW", "NPUSHB", "NPUSHW":
		return true
	}
	return false
}

var instructionSet = []Opcode{
	{"SVTCA", 0x00, 1, "SetFreedomAndProjectionVectorToCoordinateAxis"},
	{"SPVTCA", 0x02, 1, "SetProjectionVectorToCoordinateAxis"},
	{"SFVTCA", 0x04, 1, "SetFreedomVectorToCoordinateAxis"},
	{"SPVTL", 0x06, 1, "SetProjectionVectorToLine"},
	{"SFVTL", 0x08, 1, "SetFreedomVectorToLine"},
	{"SPVFS", 0x0A, 0, "SetProjectionVectorFromStack"},
	{"SFVFS", 0x0B, 0, "SetFreedomVectorFromStack"},
	{"GPV", 0x0C, 0, "GetProjectionVector"},
	{"GFV", 0x0D, 0, "GetFreedomVector"},
	{"SFVTPV", 0x0E, 0, "SetFreedomVectorToProjectionVector"},
	{"ISECT", 0x0F, 0, "MovePointToIntersection"},
	{"SRP0", 0x10, 0, "SetRefPoint0"},
	{"SRP1", 0x11, 0, "SetRefPoint1"},
	{"SRP2", 0x12, 0, "SetRefPoint2"},
	{"SZP0", 0x13, 0, "SetZonePointer0"},
	{"SZP1", 0x14, 0, "SetZonePointer1"},
	{"SZP2", 0x15, 0, "SetZonePointer2"},
	{"SZPS", 0x16, 0, "SetZonePointerS"},
	{"SLOOP", 0x17, 0, "SetLoopVariable"},
	{"RTG", 0x18, 0, "RoundToGrid"},
	{"RTHG", 0x19, 0, "RoundToHalfGrid"},
	{"SMD", 0x1A, 0, "SetMinimumDistance"},
	{"ELSE", 0x1B, 0, "Else"},
	{"JMPR", 0x1C, 0, "JumpRelative"},
	{"SCVTCI", 0x1D, 0, "SetCVTCutIn"},
	{"SSWCI", 0x1E, 0, "SetSingleWidthCutIn"},
	{"SSW", 0x1F, 0, "SetSingleWidth"},
	{"DUP", 0x20, 0, "DuplicateTopStack"},
	{"POP", 0x21, 0, "PopTopStack"},
	{"CLEAR", 0x22, 0, "ClearStack"},
	{"SWAP", 0x23, 0, "SwapTopStack"},
	{"DEPTH", 0x24, 0, "GetDepthStack"},
	{"CINDEX", 0x25, 0, "CopyXToTopStack"},
	{"MINDEX", 0x26, 0, "MoveXToTopStack"},
	{"ALIGNPTS", 0x27, 0, "AlignPts"},
	{"UTP", 0x29, 0, "UnTouchPt"},
	{"LOOPCALL", 0x2A, 0, "LoopAndCallFunction"},
	{"CALL", 0x2B, 0, "CallFunction"},
	{"FDEF", 0x2C, 0, "FunctionDefinition"},
	{"ENDF", 0x2D, 0, "EndFunctionDefinition"},
	{"MDAP", 0x2E, 1, "MoveDirectAbsPt"},
	{"IUP", 0x30, 1, "InterpolateUntPts"},
	{"SHP", 0x32, 1, "ShiftPointByLastPoint"},
	{"SHC", 0x34, 1, "ShiftContourByLastPt"},
	{"SHZ", 0x36, 1, "ShiftZoneByLastPoint"},
	{"SHPIX", 0x38, 0, "ShiftPointByPixels"},
	{"IP", 0x39, 0, "InterpolatePts"},
	{"MSIRP", 0x3A, 1, "MoveStackIndirRelPt"},
	{"ALIGNRP", 0x3C, 0, "AlignRelativePt"},
	{"RTDG", 0x3D, 0, "RoundToDoubleGrid"},
	{"MIAP", 0x3E, 1, "MoveIndirectAbsPt"},
	{"NPUSHB", 0x40, 0, "PushNBytes"},
	{"NPUSHW", 0x41, 0, "PushNWords"},
	{"WS", 0x42, 0, "WriteStore"},
	{"RS", 0x43, 0, "ReadStore"},
	{"WCVTP", 0x44, 0, "WriteCVTInPixels"},
	{"RCVT", 0x45, 0, "ReadCVT"},
	{"GC", 0x46, 1, "GetCoordOnPVector"},
	{"SCFS", 0x48, 0, "SetCoordFromStackFP"},
	{"MD", 0x49, 1, "MeasureDistance"},
	{"MPPEM", 0x4B, 0, "MeasurePixelPerEm"},
	{"MPS", 0x4C, 0, "MeasurePointSize"},
	{"FLIPON", 0x4D, 0, "SetAutoFlipOn"},
	{"FLIPOFF", 0x4E, 0, "SetAutoFlipOff"},
	{"DEBUG", 0x4F, 0, "DebugCall"},
	{"LT", 0x50, 0, "LessThan"},
	{"LTEQ", 0x51, 0, "LessThenOrEqual"},
	{"GT", 0x52, 0, "GreaterThan"},
	{"GTEQ", 0x53, 0, "GreaterThanOrEqual"},
	{"EQ", 0x54, 0, "Equal"},
	{"NEQ", 0x55, 0, "NotEqual"},
	{"ODD", 0x56, 0, "Odd"},
	{"EVEN", 0x57, 0, "Even"},
	{"IF", 0x58, 0, "IfTest"},
	{"EIF", 0x59, 0, "EndIf"},
	{"AND", 0x5A, 0, "LogicalAnd"},
	{"OR", 0x5B, 0, "LogicalOr"},
	{"NOT", 0x5C, 0, "LogicalNot"},
	{"DELTAP1", 0x5D, 0, "DeltaExceptionP1"},
	{"SDB", 0x5E, 0, "SetDeltaBaseInGState"},
	{"SDS", 0x5F, 0, "SetDeltaShiftInGState"},
	{"ADD", 0x60, 0, "Add"},
	{"SUB", 0x61, 0, "Subtract"},
	{"DIV", 0x62, 0, "Divide"},
	{"MUL", 0x63, 0, "Multiply"},
	{"ABS", 0x64, 0, "Absolute"},
	{"NEG", 0x65, 0, "Negate"},
	{"FLOOR", 0x66, 0, "Floor"},
	{"CEILING", 0x67, 0, "Ceiling"},
	{"ROUND", 0x68, 2, "Round"},
	{"NROUND", 0x6C, 2, "NoRound"},
	{"WCVTF", 0x70, 0, "WriteCVTInFUnits"},
	{"DELTAP2", 0x71, 0, "DeltaExceptionP2"},
	{"DELTAP3", 0x72, 0, "DeltaExceptionP3"},
	{"DELTAC1", 0x73, 0, "DeltaExceptionC1"},
	{"DELTAC2", 0x74, 0, "DeltaExceptionC2"},
	{"DELTAC3", 0x75, 0, "DeltaExceptionC3"},
	{"SROUND", 0x76, 0, "SuperRound"},
	{"S45ROUND", 0x77, 0, "SuperRound45Degrees"},
	{"JROT", 0x78, 0, "JumpRelativeOnTrue"},
	{"JROF", 0x79, 0, "JumpRelativeOnFalse"},
	{"ROFF", 0x7A, 0, "RoundOff"},
	{"RUTG", 0x7C, 0, "RoundUpToGrid"},
	{"RDTG", 0x7D, 0, "RoundDownToGrid"},
	{"SANGW", 0x7E, 0, "SetAngleWeight"},
	{"AA", 0x7F, 0, "AdjustAngle"},
	{"FLIPPT", 0x80, 0, "FlipPoint"},
	{"FLIPRGON", 0x81, 0, "FlipRangeOn"},
	{"FLIPRGOFF", 0x82, 0, "FlipRangeOff"},
	{"SCANCTRL", 0x85, 0, "ScanConversionControl"},
	{"SDPVTL", 0x86, 1, "SetDualPVectorToLine"},
	{"GETINFO", 0x88, 0, "GetInfo"},
	{"IDEF", 0x89, 0, "DefineInstruction"},
	{"ROLL", 0x8A, 0, "RollTopThreeStack"},
	{"MAX", 0x8B, 0, "Maximum"},
	{"MIN", 0x8C, 0, "Minimum"},
	{"SCANTYPE", 0x8D, 0, "ScanType"},
	{"INSTCTRL", 0x8E, 0, "SetInstrExecControl"},
	{"GETVARIATION", 0x91, 0, "GetVariation"},
	{"PUSHB", 0xB0, 3, "PushBytes"},
	{"PUSHW", 0xB8, 3, "PushWords"},
	{"MDRP", 0xC0, 5, "MoveDirectRelPt"},
	{"MIRP", 0xE0, 5, "MoveIndirectRelPt"},
}

var (
	mnemonicDict = make(map[string]Opcode, len(instructionSet))
	opcodeDict   [256]*Opcode
	mnemonicTrie = trie.New() // for completion
)

func init() {
	for i := range instructionSet {
		op := &instructionSet[i]
		mnemonicDict[op.Mnemonic] = *op
		for c := int(op.Code); c <= int(op.Last()); c++ {
			opcodeDict[c] = op
		}
		mnemonicTrie.Add(op.Mnemonic, *op)
	}
	mnemonicTrie.Add("PUSH", nil)
}

// Lookup returns the instruction for a mnemonic.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicDict[mnemonic]
	return op, ok
}

// Decode returns the instruction an opcode byte belongs to.
func Decode(code byte) (Opcode, bool) {
	if op := opcodeDict[code]; op != nil {
		return *op, true
	}
	return Opcode{}, false
}

// Complete returns all mnemonics starting with prefix, in alphabetical order.
// The generic PUSH mnemonic is included.
func Complete(prefix string) []string {
	matches := mnemonicTrie.PrefixSearch(strings.ToUpper(prefix))
	if len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)
	return matches
}
