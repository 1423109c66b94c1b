package reader

import (
	"bufio"
	"bytes"
	"os"
	"strings"
)

// maxLineBytes — запас буфера сканера на случай аномально длинных строк.
const maxLineBytes = 1024 * 1024

// lineSource — конечная однонаправленная последовательность строк журнала.
// Оба режима чтения реализуют один контракт, поэтому конвейер фильтрации
// существует в единственном экземпляре.
type lineSource interface {
	// Next возвращает следующую строку; ok == false означает конец файла.
	Next() (line string, ok bool, err error)
	Close() error
}

// bufferedSource держит весь файл в памяти: путь для небольших журналов.
type bufferedSource struct {
	lines []string
	pos   int
}

func newBufferedSource(path string) (*bufferedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Убираем BOM и нормализуем перевод строки (журнал пишется Windows-ом)
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &bufferedSource{lines: lines}, nil
}

func (b *bufferedSource) Next() (string, bool, error) {
	if b.pos >= len(b.lines) {
		return "", false, nil
	}
	line := b.lines[b.pos]
	b.pos++
	return line, true, nil
}

func (b *bufferedSource) Close() error { return nil }

// chunkedSource читает файл порциями по chunkSize строк, не материализуя
// весь файл: память ограничена размером одного чанка.
type chunkedSource struct {
	f         *os.File
	scanner   *bufio.Scanner
	chunk     []string
	pos       int
	chunkSize int
	eof       bool
	started   bool
}

func newChunkedSource(path string, chunkSize int) (*chunkedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &chunkedSource{
		f:         f,
		scanner:   sc,
		chunk:     make([]string, 0, chunkSize),
		chunkSize: chunkSize,
	}, nil
}

func (c *chunkedSource) Next() (string, bool, error) {
	if c.pos >= len(c.chunk) {
		if err := c.fill(); err != nil {
			return "", false, err
		}
		if len(c.chunk) == 0 {
			return "", false, nil
		}
	}
	line := c.chunk[c.pos]
	c.pos++
	return line, true, nil
}

// fill набирает следующую порцию строк.
func (c *chunkedSource) fill() error {
	c.chunk = c.chunk[:0]
	c.pos = 0
	if c.eof {
		return nil
	}
	for len(c.chunk) < c.chunkSize && c.scanner.Scan() {
		line := strings.TrimRight(c.scanner.Text(), "\r")
		if !c.started {
			line = strings.TrimPrefix(line, "\uFEFF")
			c.started = true
		}
		c.chunk = append(c.chunk, line)
	}
	if len(c.chunk) < c.chunkSize {
		c.eof = true
		if err := c.scanner.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *chunkedSource) Close() error { return c.f.Close() }
