package parser

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Логические имена полей журнала брандмауэра (словарь заголовка #Fields).
const (
	FieldDate     = "date"
	FieldTime     = "time"
	FieldAction   = "action"
	FieldProtocol = "protocol"
	FieldSrcIP    = "src-ip"
	FieldDstIP    = "dst-ip"
	FieldSrcPort  = "src-port"
	FieldDstPort  = "dst-port"
	FieldSize     = "size"
	FieldTCPFlags = "tcpflags"
	FieldTCPSyn   = "tcpsyn"
	FieldTCPAck   = "tcpack"
	FieldTCPWin   = "tcpwin"
	FieldICMPType = "icmptype"
	FieldICMPCode = "icmpcode"
	FieldInfo     = "info"
	FieldPath     = "path"
	FieldPID      = "pid"
)

// defaultPositions — стандартные позиции полей, когда заголовок #Fields
// отсутствует или не содержит нужного имени.
var defaultPositions = map[string]int{
	FieldDate:     0,
	FieldTime:     1,
	FieldAction:   2,
	FieldProtocol: 3,
	FieldSrcIP:    4,
	FieldDstIP:    5,
	FieldSrcPort:  6,
	FieldDstPort:  7,
	FieldSize:     8,
	FieldTCPFlags: 9,
	FieldTCPSyn:   10,
	FieldTCPAck:   11,
	FieldTCPWin:   12,
	FieldICMPType: 13,
	FieldICMPCode: 14,
	FieldInfo:     15,
	FieldPath:     16,
	FieldPID:      17,
}

// DefaultFieldCount — ожидаемое число полей без заголовка #Fields.
const DefaultFieldCount = 16

// headerScanLimit — сколько первых строк файла просматривается
// в поисках заголовка #Fields.
const headerScanLimit = 10

var fieldsDirective = regexp.MustCompile(`^#Fields:\s*(.+)$`)

// FieldMap — отображение имени поля в индекс токена, построенное из
// заголовка #Fields. Строится один раз на прогон и дальше только читается.
type FieldMap struct {
	index map[string]int

	// ExpectedCount — объявленное число полей в строке данных.
	ExpectedCount int
	// FromHeader — схема получена из заголовка, а не по умолчанию.
	FromHeader bool
}

// DefaultFieldMap возвращает пустую схему со стандартным числом полей.
func DefaultFieldMap() *FieldMap {
	return &FieldMap{index: map[string]int{}, ExpectedCount: DefaultFieldCount}
}

// ResolveFieldMap ищет заголовок #Fields среди первых строк файла.
// Ошибка чтения не фатальна: вызывающий получает схему по умолчанию
// вместе с ошибкой и продолжает работу на стандартных позициях.
func ResolveFieldMap(path string) (*FieldMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultFieldMap(), err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; i < headerScanLimit && sc.Scan(); i++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if i == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if fm, ok := ParseFieldsDirective(line); ok {
			return fm, nil
		}
	}
	if err := sc.Err(); err != nil {
		return DefaultFieldMap(), err
	}
	return DefaultFieldMap(), nil
}

// ParseFieldsDirective разбирает строку вида "#Fields: date time action …".
// Возвращает false, если строка не является заголовком.
func ParseFieldsDirective(line string) (*FieldMap, bool) {
	m := fieldsDirective.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	names := strings.Fields(m[1])
	fm := &FieldMap{
		index:         make(map[string]int, len(names)),
		ExpectedCount: len(names),
		FromHeader:    true,
	}
	for i, name := range names {
		if _, dup := fm.index[name]; !dup {
			fm.index[name] = i
		}
	}
	return fm, true
}

// Field возвращает значение именованного поля. Порядок разрешения:
// индекс из схемы, затем стандартная позиция, затем пустая строка.
func (m *FieldMap) Field(tokens []string, name string) string {
	if idx, ok := m.index[name]; ok && idx < len(tokens) {
		return tokens[idx]
	}
	if idx, ok := defaultPositions[name]; ok && idx < len(tokens) {
		return tokens[idx]
	}
	return ""
}

// FieldInt возвращает числовое поле. Прочерк, пустое или нечисловое
// значение дают nil — запись при этом не отбрасывается.
func (m *FieldMap) FieldInt(tokens []string, name string) *int {
	raw := m.Field(tokens, name)
	if raw == "" || raw == Placeholder {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
