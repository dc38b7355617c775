
// Package fuzztests houses Go fuzz harnesses that exercise the snapshot
// codec (bytes -> wire.Decode -> ast.Program). Its goal is to smoke test
// robustness and guard against panics or unclassified errors on arbitrary
// inputs.
//
// Назначение: запускать fuzz-обработчики, которые скармливают байты
// декодеру снапшотов и проверяют устойчивость кодека.
//
// Не делает: генерацию корпусов на диске, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/wire, internal/ast,
// internal/testkit.

package fuzztests
