package reader

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"FirewallLogReader/internal/config"
	"FirewallLogReader/internal/localnet"
	"FirewallLogReader/internal/models"
	"FirewallLogReader/internal/parser"
)

// Reader выполняет один проход по файлу журнала: выбирает стратегию
// чтения по размеру файла и прогоняет каждую строку через конвейер.
type Reader struct {
	cfg        *config.Config
	params     Params
	fields     *parser.FieldMap
	classifier *localnet.Classifier
	logger     *zap.Logger
}

// New создаёт Reader. Схема колонок и классификатор должны быть
// подготовлены заранее — до начала обработки записей.
func New(cfg *config.Config, params Params, fields *parser.FieldMap, classifier *localnet.Classifier, logger *zap.Logger) *Reader {
	return &Reader{
		cfg:        cfg,
		params:     params,
		fields:     fields,
		classifier: classifier,
		logger:     logger,
	}
}

// Run читает файл и отправляет прошедшие фильтры записи в out строго
// в порядке исходного файла. Канал не закрывается — это дело вызывающего.
// Ошибка возвращается только для фатальных условий (файл недоступен,
// сбой ввода-вывода посреди чтения); пустой результат ошибкой не является.
func (r *Reader) Run(ctx context.Context, out chan<- models.FirewallLogEntry) (Stats, error) {
	info, err := os.Stat(r.params.Path)
	if err != nil {
		return Stats{}, fmt.Errorf("stat log file: %w", err)
	}
	size := info.Size()
	streaming := r.params.ForceStreaming || size > r.cfg.StreamingThreshold()
	progress := size > r.cfg.ProgressThreshold()

	var src lineSource
	if streaming {
		src, err = newChunkedSource(r.params.Path, r.cfg.ChunkSize)
	} else {
		src, err = newBufferedSource(r.params.Path)
	}
	if err != nil {
		return Stats{}, fmt.Errorf("open log file: %w", err)
	}
	defer src.Close()

	r.logger.Info("Начинаем чтение журнала",
		zap.String("file", r.params.Path),
		zap.Int64("size", size),
		zap.Bool("streaming", streaming),
		zap.Int("declaredFields", r.fields.ExpectedCount))

	started := time.Now()
	p := NewPipeline(ctx, r.params, r.fields, r.classifier, r.logger, out)

	var bytesRead int64
	for {
		line, ok, err := src.Next()
		if err != nil {
			return p.Stats(), fmt.Errorf("read log file: %w", err)
		}
		if !ok {
			break
		}
		bytesRead += int64(len(line)) + 2 // приблизительно, с учётом CRLF
		if !p.ProcessLine(line) {
			break
		}
		if progress && p.stats.Lines%int64(r.cfg.ProgressEvery) == 0 {
			r.logger.Info("Прогресс чтения",
				zap.Int64("lines", p.stats.Lines),
				zap.Int64("emitted", p.stats.Emitted),
				zap.Int64("percent", percentOf(bytesRead, size)))
		}
	}

	stats := p.Stats()
	r.logger.Info("Чтение завершено",
		zap.Int64("lines", stats.Lines),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("filtered", stats.Filtered),
		zap.Int64("emitted", stats.Emitted),
		zap.Bool("limitReached", stats.LimitReached),
		zap.Duration("elapsed", time.Since(started)))
	return stats, nil
}

func percentOf(part, total int64) int64 {
	if total <= 0 {
		return 0
	}
	p := part * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
