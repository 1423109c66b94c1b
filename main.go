package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"FirewallLogReader/internal/config"
	"FirewallLogReader/internal/localnet"
	"FirewallLogReader/internal/logger"
	"FirewallLogReader/internal/models"
	"FirewallLogReader/internal/parser"
	"FirewallLogReader/internal/reader"
	"FirewallLogReader/internal/storage"
	"FirewallLogReader/internal/watcher"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		path         = pflag.StringP("path", "p", "", "путь к журналу брандмауэра (pfirewall.log)")
		action       = pflag.String("action", "", "фильтр по действию (ALLOW, DROP, INFO-EVENTS-LOST)")
		incoming     = pflag.Bool("incoming", false, "оставить записи с локальным получателем")
		outgoing     = pflag.Bool("outgoing", false, "оставить записи с локальным отправителем")
		disableLocal = pflag.Bool("disable-local-detection", false, "не определять локальность адресов")
		maxEvents    = pflag.IntP("max-events", "n", 0, "ограничение числа записей (0 — без ограничения)")
		streaming    = pflag.Bool("streaming", false, "принудительно читать файл чанками")
		follow       = pflag.BoolP("follow", "f", false, "следить за файлом и обрабатывать новые записи")
		resume       = pflag.Bool("resume", false, "в режиме слежения продолжить с сохранённого смещения")
		format       = pflag.String("format", "json", "формат вывода: json или text")
		configPath   = pflag.String("config", "", "путь к файлу конфигурации YAML")
		logLevel     = pflag.String("log-level", "", "уровень логирования (debug|info|warn|error)")
	)
	pflag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка загрузки конфигурации:", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	rootLogger, err := logger.InitZap(&cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка инициализации логгера:", err)
		return 1
	}
	lg := rootLogger.Named("main")
	defer lg.Sync()

	if *path == "" {
		lg.Error("Не указан путь к журналу (--path)")
		pflag.Usage()
		return 2
	}
	if *format != "json" && *format != "text" {
		lg.Error("Неизвестный формат вывода", zap.String("format", *format))
		return 2
	}
	if info, err := os.Stat(*path); err != nil {
		if !*follow {
			lg.Error("Файл журнала недоступен", zap.String("path", *path), zap.Error(err))
			return 1
		}
		lg.Warn("Файл журнала пока не существует, ждём его появления", zap.String("path", *path))
	} else if info.IsDir() {
		lg.Error("Указан каталог, а не файл журнала", zap.String("path", *path))
		return 2
	}

	params := reader.Params{
		Path:                  *path,
		ActionFilter:          *action,
		Incoming:              *incoming,
		Outgoing:              *outgoing,
		DisableLocalDetection: *disableLocal,
		MaxEvents:             *maxEvents,
		ForceStreaming:        *streaming,
	}

	// Локальная сетевая идентичность хоста собирается один раз на прогон
	var classifier *localnet.Classifier
	if *disableLocal {
		classifier = localnet.NewClassifier(nil)
	} else {
		addrs, err := localnet.CollectLocalAddresses()
		if err != nil {
			lg.Warn("Не удалось получить адреса интерфейсов", zap.Error(err))
		}
		if len(addrs) == 0 {
			lg.Warn("Список локальных адресов пуст: локальность определяется только по шаблонам")
		}
		classifier = localnet.NewClassifier(addrs)
		lg.Info("Локальные адреса собраны", zap.Int("count", classifier.Size()))
	}

	// Схема колонок из заголовка #Fields; отсутствие или нечитаемость
	// заголовка — не ошибка, работаем на стандартных позициях
	fields, err := parser.ResolveFieldMap(*path)
	if err != nil {
		lg.Warn("Заголовок #Fields прочитать не удалось, используются стандартные позиции", zap.Error(err))
	} else if fields.FromHeader {
		lg.Info("Схема колонок получена из заголовка", zap.Int("fields", fields.ExpectedCount))
	} else {
		lg.Info("Заголовок #Fields не найден, используются стандартные позиции")
	}

	out := make(chan models.FirewallLogEntry, 256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printEntries(out, *format)
	}()

	var (
		stats  reader.Stats
		runErr error
	)
	if *follow {
		pipe := reader.NewPipeline(ctx, params, fields, classifier, lg.Named("watcher"), out)
		store := storage.NewFileOffsetStore(cfg.OffsetFile)
		fw := watcher.New(watcher.Config{
			Path:   *path,
			Resume: *resume,
			Logger: lg.Named("watcher"),
			Store:  store,
		}, pipe)
		runErr = fw.Run(ctx)
		stats = pipe.Stats()
	} else {
		r := reader.New(cfg, params, fields, classifier, lg.Named("reader"))
		stats, runErr = r.Run(ctx, out)
	}
	close(out)
	wg.Wait()

	lg.Info("Итоги прогона",
		zap.Int64("lines", stats.Lines),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("filtered", stats.Filtered),
		zap.Int64("emitted", stats.Emitted),
		zap.Bool("limitReached", stats.LimitReached))

	if runErr != nil {
		lg.Error("Фатальная ошибка чтения журнала", zap.Error(runErr))
		return 1
	}
	return 0
}

// printEntries выводит записи в stdout по одной строке на запись.
func printEntries(in <-chan models.FirewallLogEntry, format string) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	for e := range in {
		if format == "json" {
			if err := enc.Encode(e); err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка вывода записи:", err)
				return
			}
		} else {
			fmt.Fprintln(w, formatText(e))
		}
	}
}

func formatText(e models.FirewallLogEntry) string {
	return fmt.Sprintf("%s %-16s %-6s %s:%s -> %s:%s [%s]",
		e.DateTime.Format("2006-01-02 15:04:05"),
		e.Action,
		e.Protocol,
		e.SourceIP, intOrDash(e.SourcePort),
		e.DestinationIP, intOrDash(e.DestinationPort),
		e.Direction)
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
