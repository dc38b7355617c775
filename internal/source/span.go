package source

import (
	"fmt"
)

// Span описывает диапазон байтов в исходном тексте программы.
// Сам текст модуль не хранит: диапазон указывает в тот файл, из
// которого термы были построены.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover возвращает минимальный диапазон, покрывающий оба.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
