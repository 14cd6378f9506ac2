package dynamic

import "fmt"

// ParseError is the typed error taxonomy for dynamic-section parsing.
type ParseError struct {
	Kind   ParseErrorKind
	Tag    int64  // the missing tag, for MissingRequiredSection / MissingDependentSection
	Parent int64  // populated for MissingDependentSection
	Value  int64  // populated for UnknownTagInPltRel
	detail string
}

type ParseErrorKind int

const (
	MissingProgramHeader ParseErrorKind = iota
	MissingRequiredSection
	MissingDependentSection
	UnknownTagInPltRel
	MalformedEntrySize
)

func (e *ParseError) Error() string {
	switch e.Kind {
	case MissingProgramHeader:
		return "dynamic: no PT_DYNAMIC program header in module"
	case MissingRequiredSection:
		return fmt.Sprintf("dynamic: missing required section for tag %d", e.Tag)
	case MissingDependentSection:
		return fmt.Sprintf("dynamic: tag %d present but dependent tag %d missing", e.Parent, e.Tag)
	case UnknownTagInPltRel:
		return fmt.Sprintf("dynamic: DT_PLTREL has unknown value %d (expected DT_REL or DT_RELA)", e.Value)
	case MalformedEntrySize:
		return fmt.Sprintf("dynamic: %s", e.detail)
	default:
		return "dynamic: parse error"
	}
}

func errMissingProgramHeader() error {
	return &ParseError{Kind: MissingProgramHeader}
}

func errMissingRequired(tag int64) error {
	return &ParseError{Kind: MissingRequiredSection, Tag: tag}
}

func errMissingDependent(parent, tag int64) error {
	return &ParseError{Kind: MissingDependentSection, Parent: parent, Tag: tag}
}

func errUnknownPltRel(value int64) error {
	return &ParseError{Kind: UnknownTagInPltRel, Value: value}
}

func errMalformedSize(detail string) error {
	return &ParseError{Kind: MalformedEntrySize, detail: detail}
}
