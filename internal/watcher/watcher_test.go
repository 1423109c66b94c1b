package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"FirewallLogReader/internal/localnet"
	"FirewallLogReader/internal/models"
	"FirewallLogReader/internal/parser"
	"FirewallLogReader/internal/reader"
	"FirewallLogReader/internal/storage"
)

const stdHeader = "#Fields: date time action protocol src-ip dst-ip src-port dst-port size tcpflags tcpsyn tcpack tcpwin icmptype icmpcode info path pid"

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pfirewall.log")
	content := strings.Join(lines, "\r\n") + "\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFollowerStopsOnLimit(t *testing.T) {
	path := writeLog(t,
		"#Version: 1.5",
		stdHeader,
		"2025-01-15 09:59:01 DROP TCP 203.0.113.5 10.0.0.5 51000 135 52 S 1 0 8192 - - - - 1",
		"2025-01-15 09:59:02 DROP TCP 203.0.113.5 10.0.0.5 51001 135 52 S 1 0 8192 - - - - 2",
		"2025-01-15 09:59:03 ALLOW TCP 10.0.0.5 203.0.113.9 51002 443 52 S 1 0 8192 - - - - 3",
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := make(chan models.FirewallLogEntry, 16)
	pipe := reader.NewPipeline(ctx,
		reader.Params{Path: path, MaxEvents: 3},
		parser.DefaultFieldMap(),
		localnet.NewClassifier([]string{"10.0.0.5"}),
		zap.NewNop(), out)

	store := storage.NewFileOffsetStore(filepath.Join(t.TempDir(), "offsets.json"))
	f := New(Config{Path: path, Logger: zap.NewNop(), Store: store}, pipe)

	require.NoError(t, f.Run(ctx))

	close(out)
	var entries []models.FirewallLogEntry
	for e := range out {
		entries = append(entries, e)
	}
	require.Len(t, entries, 3)
	// Заголовок #Fields разобран на лету
	assert.Equal(t, models.DirectionIncoming, entries[0].Direction)
	assert.Equal(t, models.DirectionOutgoing, entries[2].Direction)

	stats := pipe.Stats()
	assert.True(t, stats.LimitReached)
	assert.Equal(t, int64(2), stats.Skipped)

	// Смещение сохранено при выходе
	offsets, err := store.Load()
	require.NoError(t, err)
	assert.Greater(t, offsets[path], int64(0))
}

func TestFollowerStopsOnContextCancel(t *testing.T) {
	path := writeLog(t,
		stdHeader,
		"2025-01-15 09:59:01 DROP TCP 203.0.113.5 10.0.0.5 51000 135 52 S 1 0 8192 - - - - 1",
	)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan models.FirewallLogEntry, 16)
	pipe := reader.NewPipeline(ctx, reader.Params{Path: path},
		parser.DefaultFieldMap(), localnet.NewClassifier(nil), zap.NewNop(), out)
	f := New(Config{Path: path, Logger: zap.NewNop()}, pipe)

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	// Дождаться первой записи и остановить слежение
	select {
	case <-out:
	case <-time.After(30 * time.Second):
		t.Fatal("запись не получена")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}

func TestFollowerResumeSkipsReadLines(t *testing.T) {
	first := stdHeader + "\r\n" +
		"2025-01-15 09:59:01 DROP TCP 203.0.113.5 10.0.0.5 51000 135 52 S 1 0 8192 - - - - 1\r\n"
	second := "2025-01-15 09:59:02 DROP TCP 203.0.113.5 10.0.0.5 51001 135 52 S 1 0 8192 - - - - 2\r\n"

	path := filepath.Join(t.TempDir(), "pfirewall.log")
	require.NoError(t, os.WriteFile(path, []byte(first+second), 0o644))

	store := storage.NewFileOffsetStore(filepath.Join(t.TempDir(), "offsets.json"))
	require.NoError(t, store.Save(map[string]int64{path: int64(len(first))}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := make(chan models.FirewallLogEntry, 16)
	pipe := reader.NewPipeline(ctx, reader.Params{Path: path, MaxEvents: 1},
		parser.DefaultFieldMap(), localnet.NewClassifier(nil), zap.NewNop(), out)
	f := New(Config{Path: path, Resume: true, Logger: zap.NewNop(), Store: store}, pipe)

	require.NoError(t, f.Run(ctx))

	close(out)
	var entries []models.FirewallLogEntry
	for e := range out {
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	// Прочитанная ранее часть журнала пропущена
	require.NotNil(t, entries[0].SourcePort)
	assert.Equal(t, 51001, *entries[0].SourcePort)
}
