package watcher

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"FirewallLogReader/internal/parser"
	"FirewallLogReader/internal/reader"
	"FirewallLogReader/internal/storage"
)

// offsetSaveInterval — период сохранения смещения чтения.
const offsetSaveInterval = 30 * time.Second

// Config — зависимости режима слежения.
type Config struct {
	Path   string
	Resume bool // продолжить с сохранённого смещения
	Logger *zap.Logger
	Store  storage.OffsetStore
}

// Follower читает журнал в режиме слежения: новые строки, дописываемые
// брандмауэром, проходят через тот же конвейер, что и при разовом чтении.
// Ротация журнала (pfirewall.log → pfirewall.log.old) переживается за счёт
// ReOpen; пересоздание файла отслеживается через fsnotify, после него
// схема колонок сбрасывается до появления нового заголовка #Fields.
type Follower struct {
	cfg  Config
	pipe *reader.Pipeline
}

func New(cfg Config, pipe *reader.Pipeline) *Follower {
	return &Follower{cfg: cfg, pipe: pipe}
}

// Run работает до отмены контекста, достижения лимита записей или
// фатальной ошибки чтения.
func (f *Follower) Run(ctx context.Context) error {
	offsets := make(map[string]int64)
	if f.cfg.Resume && f.cfg.Store != nil {
		loaded, err := f.cfg.Store.Load()
		if err != nil {
			f.cfg.Logger.Error("Не удалось загрузить смещения, начинаем с начала", zap.Error(err))
		} else {
			offsets = loaded
		}
	}

	loc := tail.SeekInfo{Offset: offsets[f.cfg.Path], Whence: io.SeekStart}
	t, err := tail.TailFile(f.cfg.Path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &loc,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail log file: %w", err)
	}
	defer t.Stop()
	f.cfg.Logger.Info("Запущено слежение за журналом",
		zap.String("file", f.cfg.Path), zap.Int64("offset", offsets[f.cfg.Path]))

	recreated := make(chan struct{}, 1)
	dw, err := fsnotify.NewWatcher()
	if err != nil {
		f.cfg.Logger.Error("Не удалось создать watcher каталога", zap.Error(err))
	} else {
		defer dw.Close()
		if err := dw.Add(filepath.Dir(f.cfg.Path)); err != nil {
			f.cfg.Logger.Error("Не удалось добавить наблюдение за каталогом", zap.Error(err))
		} else {
			go f.watchRotation(ctx, dw, recreated)
		}
	}

	saveOffset := func() {
		if f.cfg.Store == nil {
			return
		}
		off, err := t.Tell()
		if err != nil {
			return
		}
		offsets[f.cfg.Path] = off
		if err := f.cfg.Store.Save(offsets); err != nil {
			f.cfg.Logger.Error("Не удалось сохранить смещения", zap.Error(err))
		}
	}
	defer saveOffset()

	ticker := time.NewTicker(offsetSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-recreated:
			// Журнал пересоздан после ротации: прежняя схема недействительна,
			// ждём новый заголовок #Fields.
			f.pipe.SetFields(parser.DefaultFieldMap())
			f.cfg.Logger.Info("Журнал пересоздан, схема колонок сброшена",
				zap.String("file", f.cfg.Path))
		case <-ticker.C:
			saveOffset()
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				return fmt.Errorf("tail read: %w", line.Err)
			}
			text := strings.TrimRight(line.Text, "\r")
			if fm, ok := parser.ParseFieldsDirective(text); ok {
				// Заголовок разбирается на лету; сама строка уходит
				// в конвейер и учитывается как пропущенная
				f.pipe.SetFields(fm)
				f.cfg.Logger.Info("Схема колонок обновлена из заголовка",
					zap.Int("fields", fm.ExpectedCount))
			}
			if !f.pipe.ProcessLine(text) {
				return nil
			}
		}
	}
}

// watchRotation следит за пересозданием файла журнала в его каталоге.
func (f *Follower) watchRotation(ctx context.Context, dw *fsnotify.Watcher, recreated chan<- struct{}) {
	base := filepath.Base(f.cfg.Path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == base && ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				select {
				case recreated <- struct{}{}:
				default:
				}
			}
		case err, ok := <-dw.Errors:
			if !ok {
				return
			}
			f.cfg.Logger.Error("Ошибка watcher-а каталога", zap.Error(err))
		}
	}
}
