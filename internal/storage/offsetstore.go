package storage

import (
	"encoding/json"
	"os"
	"sync"
)

// OffsetStore — интерфейс загрузки/сохранения смещений чтения по файлам.
// Нужен режиму слежения, чтобы после перезапуска продолжить с того же места.
type OffsetStore interface {
	Load() (map[string]int64, error)
	Save(data map[string]int64) error
}

// FileOffsetStore хранит смещения в JSON-файле.
type FileOffsetStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileOffsetStore(path string) *FileOffsetStore {
	return &FileOffsetStore{Path: path}
}

// Load читает смещения; отсутствие файла — пустая карта, не ошибка.
func (f *FileOffsetStore) Load() (map[string]int64, error) {
	offsets := make(map[string]int64)
	if _, err := os.Stat(f.Path); os.IsNotExist(err) {
		return offsets, nil
	}
	bs, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bs, &offsets); err != nil {
		return nil, err
	}
	return offsets, nil
}

// Save атомарно записывает смещения через временный файл.
func (f *FileOffsetStore) Save(data map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp := f.Path + ".tmp"
	bs, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, bs, 0o644); err != nil {
		return err
	}
	// Удаляем старый файл, чтобы Rename не ошибся (актуально для Windows)
	_ = os.Remove(f.Path)
	return os.Rename(tmp, f.Path)
}
