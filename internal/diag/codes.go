package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Термы: ошибки построения
	TermInfo            Code = 1000
	TermDuplicateBinder Code = 1001

	// Снапшоты: ошибки декодирования
	WireInfo           Code = 2000
	WireSchemaMismatch Code = 2001
	WireCorrupt        Code = 2002
	WireBadStringRef   Code = 2003
	WireBadKindTag     Code = 2004

	// Перекрёстные проверки программы
	CheckInfo                Code = 3000
	CheckUnknownTrait        Code = 3001
	CheckUnknownStruct       Code = 3002
	CheckArityMismatch       Code = 3003
	CheckKindMismatch        Code = 3004
	CheckDuplicateDecl       Code = 3005
	CheckDuplicateField      Code = 3006
	CheckUnknownAssocTy      Code = 3007
	CheckNegativeImplAssocTy Code = 3008
	CheckAutoTraitShape      Code = 3009
	CheckEmptyProgram        Code = 3010

	// Ошибки I/O
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	// Ошибки проекта
	ProjInfo            Code = 5000
	ProjManifestMissing Code = 5001
	ProjManifestInvalid Code = 5002
	ProjNoPrograms      Code = 5003

	// Служебные события
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	TermInfo:                 "Term information",
	TermDuplicateBinder:      "Duplicate name in one binder scope",
	WireInfo:                 "Snapshot information",
	WireSchemaMismatch:       "Snapshot schema version mismatch",
	WireCorrupt:              "Corrupt snapshot payload",
	WireBadStringRef:         "String reference out of range",
	WireBadKindTag:           "Unknown kind tag in snapshot",
	CheckInfo:                "Check information",
	CheckUnknownTrait:        "Reference to undeclared trait",
	CheckUnknownStruct:       "Reference to undeclared struct",
	CheckArityMismatch:       "Wrong number of parameters",
	CheckKindMismatch:        "Parameter sort mismatch",
	CheckDuplicateDecl:       "Duplicate top-level declaration",
	CheckDuplicateField:      "Duplicate field name",
	CheckUnknownAssocTy:      "Associated type not declared by trait",
	CheckNegativeImplAssocTy: "Negative impl binds associated types",
	CheckAutoTraitShape:      "Auto trait breaks shape convention",
	CheckEmptyProgram:        "Program declares nothing",
	IOLoadFileError:          "I/O load file error",
	IOWriteFileError:         "I/O write file error",
	ProjInfo:                 "Project information",
	ProjManifestMissing:      "Project manifest not found",
	ProjManifestInvalid:      "Project manifest invalid",
	ProjNoPrograms:           "Project manifest lists no programs",
	ObsInfo:                  "Observability information",
	ObsTimings:               "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("TRM%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("WIR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CHK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
