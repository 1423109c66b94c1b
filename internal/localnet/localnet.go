package localnet

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"FirewallLogReader/internal/models"
)

// private172 — префиксы диапазона 172.16.0.0/12 по отдельным значениям
// второго октета (проверка по префиксу строки, без разбора адреса).
var private172 = func() []string {
	prefixes := make([]string, 0, 16)
	for i := 16; i <= 31; i++ {
		prefixes = append(prefixes, fmt.Sprintf("172.%d.", i))
	}
	return prefixes
}()

// Classifier определяет, принадлежит ли адрес локальному хосту.
// Набор известных адресов собирается один раз на прогон и дальше
// только читается.
type Classifier struct {
	known map[string]struct{}
}

// NewClassifier строит классификатор из набора адресов интерфейсов хоста.
// Индексы зоны IPv6 отбрасываются, пустые строки игнорируются.
func NewClassifier(addrs []string) *Classifier {
	known := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		a = StripZone(strings.TrimSpace(a))
		if a != "" {
			known[a] = struct{}{}
		}
	}
	return &Classifier{known: known}
}

// Size возвращает число известных локальных адресов.
func (c *Classifier) Size() int { return len(c.known) }

// IsLocal проверяет адрес по правилам в порядке от дешёвого к дорогому.
// Точное совпадение с адресом интерфейса имеет приоритет над шаблонами:
// это факт из живой конфигурации сети.
func (c *Classifier) IsLocal(addr string) bool {
	if addr == "" {
		return false
	}
	if _, ok := c.known[addr]; ok {
		return true
	}
	lower := strings.ToLower(addr)
	if strings.HasPrefix(lower, "fe80::") {
		return true
	}
	if strings.HasPrefix(lower, "fd") || strings.HasPrefix(lower, "fc") {
		return true
	}
	if lower == "::1" {
		return true
	}
	if strings.HasPrefix(addr, "127.") {
		return true
	}
	if strings.HasPrefix(addr, "10.") || strings.HasPrefix(addr, "192.168.") {
		return true
	}
	for _, p := range private172 {
		if strings.HasPrefix(addr, p) {
			return true
		}
	}
	return false
}

// DirectionFor вычисляет направление трафика по локальности адресов.
// detectionOff — детекция отключена или локальность определить нельзя
// (INFO-EVENTS-LOST, прочерк вместо адреса).
func DirectionFor(srcLocal, dstLocal, detectionOff bool) models.Direction {
	switch {
	case detectionOff:
		return models.DirectionUnknown
	case srcLocal && dstLocal:
		return models.DirectionInternal
	case dstLocal:
		return models.DirectionIncoming
	case srcLocal:
		return models.DirectionOutgoing
	default:
		return models.DirectionTransit
	}
}

// CollectLocalAddresses собирает адреса всех сетевых интерфейсов хоста.
func CollectLocalAddresses() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("interface addrs: %w", err)
	}
	seen := make(map[string]struct{}, len(addrs))
	result := make([]string, 0, len(addrs))
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil {
			continue
		}
		s := StripZone(ip.String())
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	sort.Strings(result)
	return result, nil
}

// StripZone убирает индекс зоны IPv6: "fe80::1%eth0" → "fe80::1".
func StripZone(addr string) string {
	if i := strings.IndexByte(addr, '%'); i >= 0 {
		return addr[:i]
	}
	return addr
}
