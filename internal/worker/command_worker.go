package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"weatherlog/internal/service"
)

const (
	ExportCommand = "export"

	CommandModeRepeat = "repeat"
	CommandModeOnce   = "once"
)

// CommandWorker читает команды оператора построчно. Команда одна, "export",
// остальное игнорируется. В режиме once воркер завершается после первого
// экспорта. Конец ввода останавливает только этот воркер.
type CommandWorker struct {
	exporter service.ExportService
	in       io.Reader
	out      io.Writer
	once     bool
	logger   *slog.Logger
}

func NewCommandWorker(exporter service.ExportService, in io.Reader, out io.Writer, mode string, logger *slog.Logger) *CommandWorker {
	return &CommandWorker{
		exporter: exporter,
		in:       in,
		out:      out,
		once:     mode == CommandModeOnce,
		logger:   logger,
	}
}

func (w *CommandWorker) Name() string {
	return "command"
}

func IsExportCommand(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExportCommand)
}

func (w *CommandWorker) Run(ctx context.Context) error {
	// Читатель живет не дольше Run, в том числе в режиме once
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, scanErr := w.readLines(readCtx)

	w.prompt()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return w.inputClosed(scanErr)
			}
			if !IsExportCommand(line) {
				w.logger.Debug("ignoring command", "input", line)
				continue
			}

			w.export(ctx)
			if w.once {
				return nil
			}
			w.prompt()
		}
	}
}

// readLines читает ввод в отдельной горутине. Чтение stdin не прерывается,
// поэтому горутина выходит на следующей строке после отмены ctx.
func (w *CommandWorker) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	return lines, scanErr
}

func (w *CommandWorker) export(ctx context.Context) {
	path, err := w.exporter.Export(ctx)
	if err != nil {
		fmt.Fprintf(w.out, "export failed: %v\n", err)
		return
	}
	fmt.Fprintf(w.out, "export complete: %s\n", path)
}

func (w *CommandWorker) inputClosed(scanErr <-chan error) error {
	var err error
	select {
	case err = <-scanErr:
	default:
	}
	if err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	w.logger.Info("command input closed")
	return nil
}

func (w *CommandWorker) prompt() {
	fmt.Fprintf(w.out, "Type %q to save the collected readings: ", ExportCommand)
}
