package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"quill/internal/ast"
	"quill/internal/check"
	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/wire"
)

// VetResult содержит результат проверки одного снапшота.
type VetResult struct {
	Path    string
	Program *ast.Program
	Builder *ast.Builder
	Stats   check.Stats
	Bag     *diag.Bag
	Timing  *observ.Report
}

// VetStage определяет, до какого этапа гнать конвейер
type VetStage string

const (
	VetStageDecode VetStage = "decode"
	VetStageAll    VetStage = "all"
)

// VetOptions содержит опции для проверки снапшотов
type VetOptions struct {
	Stage            VetStage
	MaxDiagnostics   int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	EnableTimings    bool

	// Interner задаёт общую таблицу имён; nil означает отдельную на файл.
	Interner *source.Interner

	// Progress получает события конвейера; nil отключает их.
	Progress ProgressSink
}

// Vet запускает конвейер load -> decode -> check для одного файла
func Vet(ctx context.Context, path string, maxDiagnostics int) (*VetResult, error) {
	opts := VetOptions{
		Stage:          VetStageAll,
		MaxDiagnostics: maxDiagnostics,
	}
	return VetFile(ctx, path, opts)
}

// VetFile запускает конвейер для одного файла с указанными опциями.
// Любой сбой (I/O, повреждённый снапшот, дубликат имени в биндере)
// превращается в диагностику с кодом; error возвращается только при отмене ctx.
func VetFile(ctx context.Context, path string, opts VetOptions) (*VetResult, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	begin := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	end := func(idx int, note string) {
		if timer == nil || idx < 0 {
			return
		}
		timer.End(idx, note)
	}

	tracer := trace.FromContext(ctx)
	fileSpan := trace.Begin(tracer, trace.ScopeFile, path, trace.CurrentSpan(ctx).SpanID)
	defer fileSpan.End("")

	bag := diag.NewBag(opts.MaxDiagnostics)
	res := &VetResult{Path: path, Bag: bag}

	fileStart := time.Now()
	lastStage := StageLoad
	var fileErr error
	finish := func() *VetResult {
		applyWarningPolicy(bag, opts)
		if timer != nil {
			report := timer.Report()
			res.Timing = &report
			appendTimingDiagnostic(bag, "file", path, report)
		}
		status := StatusDone
		if bag.HasErrors() {
			status = StatusError
		}
		emitFile(opts.Progress, path, lastStage, status, fileErr, time.Since(fileStart))
		return res
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	emitFile(opts.Progress, path, StageLoad, StatusWorking, nil, 0)
	loadIdx := begin("load")
	loadSpan := trace.Begin(tracer, trace.ScopeStage, "load", fileSpan.ID())
	data, err := os.ReadFile(path)
	if err != nil {
		loadSpan.End("error")
		end(loadIdx, "error")
		fileErr = err
		bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
		return finish(), nil
	}
	loadNote := fmt.Sprintf("bytes=%d", len(data))
	loadSpan.End(loadNote)
	end(loadIdx, loadNote)

	if err := ctx.Err(); err != nil {
		return finish(), err
	}

	interner := opts.Interner
	if interner == nil {
		interner = source.NewInterner()
	}
	builder := ast.NewBuilder(interner)
	res.Builder = builder

	emitFile(opts.Progress, path, StageDecode, StatusWorking, nil, 0)
	lastStage = StageDecode
	decodeIdx := begin("decode")
	decodeSpan := trace.Begin(tracer, trace.ScopeStage, "decode", fileSpan.ID())
	prog, err := wire.Decode(bytes.NewReader(data), builder)
	if err != nil {
		decodeSpan.End("error")
		end(decodeIdx, "error")
		fileErr = err
		bag.Add(decodeDiagnostic(err))
		return finish(), nil
	}
	res.Program = prog
	decodeNote := fmt.Sprintf("items=%d", len(prog.Items))
	decodeSpan.End(decodeNote)
	end(decodeIdx, decodeNote)

	if opts.Stage == VetStageDecode {
		return finish(), nil
	}

	if err := ctx.Err(); err != nil {
		return finish(), err
	}

	emitFile(opts.Progress, path, StageCheck, StatusWorking, nil, 0)
	lastStage = StageCheck
	checkIdx := begin("check")
	checkSpan := trace.Begin(tracer, trace.ScopeStage, "check", fileSpan.ID())
	res.Stats = check.Program(prog, interner, check.Options{
		Reporter: &diag.BagReporter{Bag: bag},
	})
	checkNote := fmt.Sprintf("diags=%d", bag.Len())
	checkSpan.End(checkNote)
	end(checkIdx, checkNote)

	return finish(), nil
}

// applyWarningPolicy фильтрует и трансформирует диагностики по опциям
func applyWarningPolicy(bag *diag.Bag, opts VetOptions) {
	if bag == nil {
		return
	}
	if opts.IgnoreWarnings {
		bag.Filter(func(d *diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if opts.WarningsAsErrors {
		bag.Transform(func(d *diag.Diagnostic) *diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
		// Пересортировываем после изменения severity
		bag.Sort()
	}
}

// decodeDiagnostic превращает ошибку декодера в диагностику с кодом.
// Спан есть только у дубликата биндера: он указывает в исходный текст,
// остальные ошибки относятся к файлу целиком.
func decodeDiagnostic(err error) diag.Diagnostic {
	var bindErr *ast.BindError
	if errors.As(err, &bindErr) {
		d := diag.NewError(diag.TermDuplicateBinder, bindErr.Dup.Span,
			fmt.Sprintf("name '%s' bound twice in one binder list", bindErr.Name))
		return d.WithNote(bindErr.First.Span, "first bound here")
	}
	switch {
	case errors.Is(err, wire.ErrSchema):
		return diag.NewError(diag.WireSchemaMismatch, source.Span{}, err.Error())
	case errors.Is(err, wire.ErrStringRef):
		return diag.NewError(diag.WireBadStringRef, source.Span{}, err.Error())
	case errors.Is(err, wire.ErrKindTag):
		return diag.NewError(diag.WireBadKindTag, source.Span{}, err.Error())
	default:
		return diag.NewError(diag.WireCorrupt, source.Span{}, err.Error())
	}
}
