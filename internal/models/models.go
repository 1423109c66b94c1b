package models

import (
	"strings"
	"time"
)

// Direction — классификация записи журнала относительно локального хоста.
type Direction string

const (
	DirectionIncoming Direction = "Incoming" // получатель локальный
	DirectionOutgoing Direction = "Outgoing" // отправитель локальный
	DirectionInternal Direction = "Internal" // оба адреса локальные
	DirectionTransit  Direction = "Transit"  // оба адреса внешние
	DirectionUnknown  Direction = "Unknown"  // локальность определить нельзя
)

// Значения поля action журнала брандмауэра Windows.
const (
	ActionAllow      = "ALLOW"
	ActionDrop       = "DROP"
	ActionEventsLost = "INFO-EVENTS-LOST"
)

// FirewallLogEntry — типизированная запись журнала брандмауэра.
// Числовые поля указатели: nil означает прочерк или нечисловое значение
// в исходной строке.
type FirewallLogEntry struct {
	DateTime        time.Time
	Action          string
	Protocol        string
	SourceIP        string
	DestinationIP   string
	SourcePort      *int
	DestinationPort *int
	PacketSize      *int
	TCPFlags        string
	TCPSyn          string
	TCPAck          string
	TCPWin          *int
	ICMPType        *int
	ICMPCode        *int
	Info            string
	Path            string
	ProcessID       *int

	Direction         Direction
	IsBlocked         bool
	IsAllowed         bool
	SourceIsLocal     bool
	DestIsLocal       bool
	IsInternalTraffic bool
	HasPath           bool
	HasProcessID      bool
	ProtocolNumber    *int
}

// protocolNumbers — номера IP-протоколов для известных значений поля protocol.
var protocolNumbers = map[string]int{
	"TCP":    6,
	"UDP":    17,
	"ICMP":   1,
	"ICMPV6": 58,
}

// ProtocolNumberFor возвращает номер IP-протокола или nil для неизвестного.
func ProtocolNumberFor(protocol string) *int {
	if n, ok := protocolNumbers[strings.ToUpper(protocol)]; ok {
		return &n
	}
	return nil
}
