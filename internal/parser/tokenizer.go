package parser

import "strings"

// MinRequiredFields — минимум токенов для безопасной обработки записи.
// Действует и для стандартных строк, и для варианта INFO-EVENTS-LOST.
const MinRequiredFields = 14

// Placeholder — прочерк на месте отсутствующего значения поля.
const Placeholder = "-"

// Tokenize разбивает строку журнала на позиционные токены.
// Возвращает nil для комментариев, заголовков, пустых и слишком
// коротких строк — такие строки считаются пропущенными, не ошибочными.
func Tokenize(line string) []string {
	if len(line) <= 3 || strings.HasPrefix(line, "#") {
		return nil
	}
	tokens := strings.Fields(line)
	if len(tokens) < MinRequiredFields {
		return nil
	}
	return tokens
}
