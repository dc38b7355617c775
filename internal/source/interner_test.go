package source

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Базовые тесты функциональности

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	// NoStringID зарезервирован за пустой строкой
	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID должен возвращать пустую строку, получили: %q, ok=%v", s, ok)
	}

	id1 := interner.Intern("Clone")
	if id1 == NoStringID {
		t.Error("Intern не должен возвращать NoStringID для непустой строки")
	}

	// Повторный Intern того же имени возвращает тот же ID
	id2 := interner.Intern("Clone")
	if id1 != id2 {
		t.Errorf("Intern должен возвращать одинаковые ID для одинаковых строк: %d != %d", id1, id2)
	}

	if s, ok := interner.Lookup(id1); !ok || s != "Clone" {
		t.Errorf("Lookup вернул неверную строку: %q, ok=%v", s, ok)
	}

	id3 := interner.Intern("Iterator")
	if id3 == id1 {
		t.Error("Разные строки должны иметь разные ID")
	}

	if interner.Len() != 3 { // "", "Clone", "Iterator"
		t.Errorf("Len должен быть 3, получили: %d", interner.Len())
	}
}

func TestInternerBytes(t *testing.T) {
	interner := NewInterner()

	id1 := interner.InternBytes([]byte("Vec"))
	id2 := interner.Intern("Vec")

	if id1 != id2 {
		t.Errorf("InternBytes и Intern должны возвращать одинаковые ID: %d != %d", id1, id2)
	}
}

func TestInternerNFC(t *testing.T) {
	interner := NewInterner()

	// "é" как одна кодовая точка (U+00E9) и как "e" + комбинируемый
	// акцент (U+0065 U+0301): канонически эквивалентные написания.
	composed := "café"
	decomposed := "café"

	id1 := interner.Intern(composed)
	id2 := interner.Intern(decomposed)
	if id1 != id2 {
		t.Errorf("канонически эквивалентные написания должны получать один ID: %d != %d", id1, id2)
	}

	// Таблица хранит форму NFC
	if s := interner.MustLookup(id1); s != composed {
		t.Errorf("ожидали NFC-форму %q, получили %q", composed, s)
	}
}

func TestInternerHas(t *testing.T) {
	interner := NewInterner()

	if !interner.Has(NoStringID) {
		t.Error("Has должен возвращать true для NoStringID")
	}

	id := interner.Intern("Sized")
	if !interner.Has(id) {
		t.Error("Has должен возвращать true для валидного ID")
	}

	if interner.Has(StringID(9999)) {
		t.Error("Has должен возвращать false для несуществующего ID")
	}
}

func TestInternerMustLookup(t *testing.T) {
	interner := NewInterner()

	id := interner.Intern("Deref")
	if s := interner.MustLookup(id); s != "Deref" {
		t.Errorf("MustLookup вернул неверную строку: %q", s)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup должен паниковать для невалидного ID")
		}
	}()
	interner.MustLookup(StringID(9999))
}

func TestInternerSnapshot(t *testing.T) {
	interner := NewInterner()

	interner.Intern("Foo")
	interner.Intern("Bar")

	snapshot := interner.Snapshot()
	if len(snapshot) != 3 { // "", "Foo", "Bar"
		t.Errorf("Snapshot должен содержать 3 элемента, получили: %d", len(snapshot))
	}
	if snapshot[1] != "Foo" || snapshot[2] != "Bar" {
		t.Errorf("Snapshot должен сохранять порядок ID: %v", snapshot)
	}

	// Snapshot возвращает копию: её изменение не влияет на таблицу
	snapshot[1] = "mutated"
	if s, _ := interner.Lookup(StringID(1)); s != "Foo" {
		t.Error("Изменение snapshot не должно влиять на interner")
	}
}

func TestInternerStringCopy(t *testing.T) {
	interner := NewInterner()

	// Строка построена из буфера, который мы потом портим
	buf := []byte("Borrow")
	id := interner.InternBytes(buf)

	buf[0] = 'X'

	if s, ok := interner.Lookup(id); !ok || s != "Borrow" {
		t.Errorf("Interner должен хранить собственную копию строки, получили: %q", s)
	}
}

// Тесты параллельного доступа

func TestInternerConcurrentIntern(t *testing.T) {
	interner := NewInterner()
	const numGoroutines = 64
	const numStrings = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Все горутины интернируют один и тот же набор имён:
	// дубликатов в таблице быть не должно.
	for g := 0; g < numGoroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < numStrings; i++ {
				interner.Intern(fmt.Sprintf("Trait_%d", i))
			}
		}()
	}

	wg.Wait()

	expectedLen := numStrings + 1 // +1 для NoStringID
	if interner.Len() != expectedLen {
		t.Errorf("Ожидалось %d строк, получили: %d", expectedLen, interner.Len())
	}

	ids := make(map[StringID]bool)
	for i := 0; i < numStrings; i++ {
		s := fmt.Sprintf("Trait_%d", i)
		id := interner.Intern(s)
		if ids[id] {
			t.Errorf("Дубликат ID для строки %q: %d", s, id)
		}
		ids[id] = true

		if retrieved, ok := interner.Lookup(id); !ok || retrieved != s {
			t.Errorf("Lookup вернул неверную строку для %q: %q, ok=%v", s, retrieved, ok)
		}
	}
}

func TestInternerConcurrentReaders(t *testing.T) {
	interner := NewInterner()
	const numWriters = 8
	const numReaders = 32
	const iterations = 2000

	// Предзаполняем часть таблицы, чтобы читателям было что читать
	for i := 0; i < 50; i++ {
		interner.Intern(fmt.Sprintf("Seed_%d", i))
	}

	var wg sync.WaitGroup
	wg.Add(numWriters + numReaders)

	for w := 0; w < numWriters; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				interner.Intern(fmt.Sprintf("W%d_%d", w, i%200))
			}
		}(w)
	}

	for r := 0; r < numReaders; r++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				id := StringID(i % 50)
				if !interner.Has(id) {
					t.Errorf("Has вернул false для заведомо валидного ID %d", id)
					return
				}
				if _, ok := interner.Lookup(id); !ok {
					t.Errorf("Lookup не нашёл заведомо валидный ID %d", id)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestInternerNoDeadlock(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем deadlock тест в short режиме")
	}

	interner := NewInterner()
	const numGoroutines = 64

	done := make(chan bool, 1)

	go func() {
		var wg sync.WaitGroup
		wg.Add(numGoroutines)

		for g := 0; g < numGoroutines; g++ {
			go func() {
				defer wg.Done()

				// Миксуем все операции
				for i := 0; i < 1000; i++ {
					switch i % 6 {
					case 0:
						interner.Intern(fmt.Sprintf("n_%d", i))
					case 1:
						interner.InternBytes(fmt.Appendf([]byte{}, "n_%d", i))
					case 2:
						interner.Lookup(StringID(i % 100))
					case 3:
						interner.Has(StringID(i % 100))
					case 4:
						interner.Len()
					case 5:
						interner.Snapshot()
					}
				}
			}()
		}

		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Тест завис - возможен дедлок")
	}
}

// Бенчмарки

func BenchmarkInternerInternDuplicate(b *testing.B) {
	interner := NewInterner()
	const str = "Iterator"
	interner.Intern(str)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		interner.Intern(str)
	}
}

func BenchmarkInternerInternUnique(b *testing.B) {
	interner := NewInterner()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		interner.Intern(fmt.Sprintf("unique_%d", i))
	}
}

func BenchmarkInternerLookup(b *testing.B) {
	interner := NewInterner()
	ids := make([]StringID, 1000)
	for i := range ids {
		ids[i] = interner.Intern(fmt.Sprintf("name_%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		interner.Lookup(ids[i%len(ids)])
	}
}

func BenchmarkInternerConcurrentIntern(b *testing.B) {
	interner := NewInterner()
	names := make([]string, 100)
	for i := range names {
		names[i] = fmt.Sprintf("name_%d", i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			interner.Intern(names[i%len(names)])
			i++
		}
	})
}

func BenchmarkInternerConcurrentLookup(b *testing.B) {
	interner := NewInterner()
	ids := make([]StringID, 100)
	for i := range ids {
		ids[i] = interner.Intern(fmt.Sprintf("name_%d", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			interner.Lookup(ids[i%len(ids)])
			i++
		}
	})
}
