package reader

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"FirewallLogReader/internal/localnet"
	"FirewallLogReader/internal/models"
	"FirewallLogReader/internal/parser"
)

// Params — проверенные параметры одного прогона (поверхность CLI).
type Params struct {
	Path                  string
	ActionFilter          string // пусто — без фильтра по действию
	Incoming              bool
	Outgoing              bool
	DisableLocalDetection bool
	MaxEvents             int // 0 — без ограничения
	ForceStreaming        bool
}

// Stats — счётчики одного прогона. Накапливаются локально в конвейере
// и возвращаются вызывающему, глобального состояния нет.
type Stats struct {
	Lines        int64 // прочитано строк
	Skipped      int64 // пропущено: комментарии, заголовки, битые строки
	Filtered     int64 // отброшено фильтрами action/direction
	Emitted      int64 // отправлено записей
	LimitReached bool
}

// Pipeline прогоняет строки журнала через токенизацию, классификацию
// и фильтры и отправляет прошедшие записи в выходной канал. Один и тот же
// конвейер обслуживает буферизованное чтение, потоковое чтение и режим
// слежения. Использовать из одной горутины.
type Pipeline struct {
	ctx        context.Context
	params     Params
	fields     *parser.FieldMap
	classifier *localnet.Classifier
	logger     *zap.Logger
	out        chan<- models.FirewallLogEntry
	stats      Stats
}

// NewPipeline собирает конвейер обработки строк.
func NewPipeline(ctx context.Context, params Params, fields *parser.FieldMap, classifier *localnet.Classifier, logger *zap.Logger, out chan<- models.FirewallLogEntry) *Pipeline {
	if fields == nil {
		fields = parser.DefaultFieldMap()
	}
	return &Pipeline{
		ctx:        ctx,
		params:     params,
		fields:     fields,
		classifier: classifier,
		logger:     logger,
		out:        out,
	}
}

// Stats возвращает текущие счётчики.
func (p *Pipeline) Stats() Stats { return p.stats }

// Fields возвращает текущую схему колонок.
func (p *Pipeline) Fields() *parser.FieldMap { return p.fields }

// SetFields заменяет схему колонок. Нужно режиму слежения: после ротации
// журнала схема сбрасывается до появления нового заголовка #Fields.
func (p *Pipeline) SetFields(fm *parser.FieldMap) {
	if fm != nil {
		p.fields = fm
	}
}

// ProcessLine обрабатывает одну строку. Возвращает false, когда чтение
// нужно прекратить: достигнут лимит записей или отменён контекст.
func (p *Pipeline) ProcessLine(line string) bool {
	p.stats.Lines++
	p.safeProcess(line)

	if p.params.MaxEvents > 0 && p.stats.Emitted >= int64(p.params.MaxEvents) {
		p.stats.LimitReached = true
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	default:
		return true
	}
}

// safeProcess изолирует обработку одной строки: паника помечает строку
// пропущенной и не прерывает прогон.
func (p *Pipeline) safeProcess(line string) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.Skipped++
			p.logger.Warn("Паника при обработке строки восстановлена",
				zap.Any("error", r), zap.Int64("line", p.stats.Lines))
		}
	}()

	tokens := parser.Tokenize(line)
	if tokens == nil {
		p.stats.Skipped++
		return
	}

	p.checkFieldCount(tokens)

	action := p.fields.Field(tokens, parser.FieldAction)
	if p.params.ActionFilter != "" && !strings.EqualFold(action, p.params.ActionFilter) {
		p.stats.Filtered++
		return
	}

	srcIP := p.fields.Field(tokens, parser.FieldSrcIP)
	dstIP := p.fields.Field(tokens, parser.FieldDstIP)

	// INFO-EVENTS-LOST и прочерки вместо адресов: локальность определить
	// нельзя, классификация и фильтр направления не применяются.
	bypass := action == models.ActionEventsLost ||
		srcIP == parser.Placeholder || dstIP == parser.Placeholder

	var srcLocal, dstLocal bool
	if !p.params.DisableLocalDetection && !bypass {
		srcLocal = p.classifier.IsLocal(srcIP)
		dstLocal = p.classifier.IsLocal(dstIP)

		switch {
		case p.params.Incoming && p.params.Outgoing:
			// Оба переключателя: остаются только записи с обоими
			// локальными адресами, как в исходной системе.
			if !(srcLocal && dstLocal) {
				p.stats.Filtered++
				return
			}
		case p.params.Incoming:
			if !dstLocal {
				p.stats.Filtered++
				return
			}
		case p.params.Outgoing:
			if !srcLocal {
				p.stats.Filtered++
				return
			}
		}
	}

	// Дорогая сборка записи — только после прохождения всех фильтров
	dir := localnet.DirectionFor(srcLocal, dstLocal, p.params.DisableLocalDetection || bypass)
	entry := parser.BuildEntry(tokens, p.fields, srcLocal, dstLocal, dir)

	select {
	case p.out <- entry:
		p.stats.Emitted++
	case <-p.ctx.Done():
	}
}

// checkFieldCount — диагностика несовпадения числа токенов со схемой.
// Вариант INFO-EVENTS-LOST на один токен короче схемы — документированный
// случай без колонки path, диагностики не требует.
func (p *Pipeline) checkFieldCount(tokens []string) {
	expected := p.fields.ExpectedCount
	if expected == 0 || len(tokens) == expected {
		return
	}
	action := p.fields.Field(tokens, parser.FieldAction)
	if action == models.ActionEventsLost && len(tokens) == expected-1 {
		return
	}
	p.logger.Debug("Число полей не совпадает со схемой",
		zap.Int("got", len(tokens)),
		zap.Int("expected", expected),
		zap.Int64("line", p.stats.Lines))
}
