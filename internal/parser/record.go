package parser

import (
	"time"

	"FirewallLogReader/internal/models"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// BuildEntry собирает типизированную запись из токенов одной строки.
// srcLocal и dstLocal — результат классификации адресов (false, если
// детекция отключена или локальность определить нельзя), dir — уже
// вычисленное направление.
func BuildEntry(tokens []string, fm *FieldMap, srcLocal, dstLocal bool, dir models.Direction) models.FirewallLogEntry {
	action := fm.Field(tokens, FieldAction)
	protocol := fm.Field(tokens, FieldProtocol)

	entry := models.FirewallLogEntry{
		DateTime:        parseDateTime(fm.Field(tokens, FieldDate), fm.Field(tokens, FieldTime)),
		Action:          action,
		Protocol:        protocol,
		SourceIP:        fm.Field(tokens, FieldSrcIP),
		DestinationIP:   fm.Field(tokens, FieldDstIP),
		SourcePort:      fm.FieldInt(tokens, FieldSrcPort),
		DestinationPort: fm.FieldInt(tokens, FieldDstPort),
		PacketSize:      fm.FieldInt(tokens, FieldSize),
		TCPFlags:        fm.Field(tokens, FieldTCPFlags),
		TCPSyn:          fm.Field(tokens, FieldTCPSyn),
		TCPAck:          fm.Field(tokens, FieldTCPAck),
		TCPWin:          fm.FieldInt(tokens, FieldTCPWin),
		ICMPType:        fm.FieldInt(tokens, FieldICMPType),
		ICMPCode:        fm.FieldInt(tokens, FieldICMPCode),
		Info:            fm.Field(tokens, FieldInfo),

		Direction:         dir,
		IsBlocked:         action == models.ActionDrop,
		IsAllowed:         action == models.ActionAllow,
		SourceIsLocal:     srcLocal,
		DestIsLocal:       dstLocal,
		IsInternalTraffic: srcLocal && dstLocal,
		ProtocolNumber:    models.ProtocolNumberFor(protocol),
	}

	if action != models.ActionEventsLost {
		entry.Path = fm.Field(tokens, FieldPath)
		entry.ProcessID = fm.FieldInt(tokens, FieldPID)
	}
	// Для INFO-EVENTS-LOST колонка path в строке отсутствует: позиционный
	// доступ прочитал бы чужой токен, поэтому path и pid остаются пустыми.

	entry.HasPath = entry.Path != "" && entry.Path != Placeholder
	entry.HasProcessID = entry.ProcessID != nil && *entry.ProcessID != 0
	return entry
}

// parseDateTime собирает отметку времени из полей date и time.
// Неразборчивое время заменяется текущим, запись не отбрасывается.
func parseDateTime(date, tm string) time.Time {
	t, err := time.Parse(dateTimeLayout, date+" "+tm)
	if err != nil {
		return time.Now()
	}
	return t
}
