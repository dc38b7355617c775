package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"quill/internal/source"
	"quill/internal/trace"
)

// ListSnapshots разворачивает аргументы в отсортированный список
// файлов снапшотов: каталоги обходятся рекурсивно, из них и из явных
// аргументов берутся только файлы с расширением .qpk, дубликаты
// отбрасываются.
func ListSnapshots(ctx context.Context, paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if filepath.Ext(path) == ".qpk" {
					addFile(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		if filepath.Ext(p) == ".qpk" {
			addFile(p)
		}
	}

	sort.Strings(files)
	return files, nil
}

// VetFiles проверяет все перечисленные снапшоты параллельно.
// Результаты идут в порядке отсортированных путей независимо от
// планировщика. Все файлы делят одну таблицу имён.
func VetFiles(ctx context.Context, paths []string, jobs int, opts VetOptions) (*source.Interner, []VetResult, error) {
	if len(paths) == 0 {
		return source.NewInterner(), nil, nil
	}

	// Сортируем копию, чтобы не трогать срез вызывающего
	files := make([]string, len(paths))
	copy(files, paths)
	sort.Strings(files)

	// Создаём общий потокобезопасный interner
	interner := opts.Interner
	if interner == nil {
		interner = source.NewInterner()
	}
	opts.Interner = interner

	// Настраиваем параллелизм
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	emitQueued(opts.Progress, files)

	tracer := trace.FromContext(ctx)
	driverSpan := trace.Begin(tracer, trace.ScopeDriver, "vet_files", trace.CurrentSpan(ctx).SpanID)
	driverSpan.WithExtra("files", fmt.Sprintf("%d", len(files)))
	defer driverSpan.End("")
	gctxRoot := trace.WithSpanContext(ctx, trace.SpanContext{SpanID: driverSpan.ID()})

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]VetResult, len(files))

	g, gctx := errgroup.WithContext(gctxRoot)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				// Проверка отмены
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				res, err := VetFile(gctx, path, opts)
				if err != nil {
					return err
				}

				// Сохраняем результат (мьютекс не нужен, индекс i уникален)
				results[i] = *res
				return nil
			}
		}(i, path))
	}

	// Ждём завершения всех горутин
	if err := g.Wait(); err != nil {
		return interner, results, err
	}

	return interner, results, nil
}
