package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FirewallLogReader/internal/models"
)

func TestBuildEntryTypedFields(t *testing.T) {
	fm, ok := ParseFieldsDirective(stdHeader)
	require.True(t, ok)
	tokens := strings.Fields("2025-01-15 09:59:01 DROP TCP 203.0.113.5 10.0.0.5 51000 135 52 S 1 0 8192 - - - - 4321")

	e := BuildEntry(tokens, fm, false, true, models.DirectionIncoming)

	assert.True(t, e.DateTime.Equal(time.Date(2025, 1, 15, 9, 59, 1, 0, time.UTC)))
	assert.Equal(t, "DROP", e.Action)
	assert.Equal(t, "TCP", e.Protocol)
	assert.Equal(t, "203.0.113.5", e.SourceIP)
	assert.Equal(t, "10.0.0.5", e.DestinationIP)
	require.NotNil(t, e.SourcePort)
	assert.Equal(t, 51000, *e.SourcePort)
	require.NotNil(t, e.DestinationPort)
	assert.Equal(t, 135, *e.DestinationPort)
	require.NotNil(t, e.PacketSize)
	assert.Equal(t, 52, *e.PacketSize)
	assert.Equal(t, "S", e.TCPFlags)
	assert.Equal(t, "1", e.TCPSyn)
	assert.Equal(t, "0", e.TCPAck)
	require.NotNil(t, e.TCPWin)
	assert.Equal(t, 8192, *e.TCPWin)
	assert.Nil(t, e.ICMPType)
	assert.Nil(t, e.ICMPCode)

	assert.Equal(t, models.DirectionIncoming, e.Direction)
	assert.True(t, e.IsBlocked)
	assert.False(t, e.IsAllowed)
	assert.False(t, e.SourceIsLocal)
	assert.True(t, e.DestIsLocal)
	assert.False(t, e.IsInternalTraffic)

	// path == "-" — путь отсутствует
	assert.False(t, e.HasPath)
	require.NotNil(t, e.ProcessID)
	assert.Equal(t, 4321, *e.ProcessID)
	assert.True(t, e.HasProcessID)

	require.NotNil(t, e.ProtocolNumber)
	assert.Equal(t, 6, *e.ProtocolNumber)
}

func TestBuildEntryAllowWithPath(t *testing.T) {
	fm, ok := ParseFieldsDirective(stdHeader)
	require.True(t, ok)
	tokens := strings.Fields("2025-01-15 10:00:00 ALLOW UDP 192.168.1.10 192.168.1.20 137 137 78 - - - - - - - C:\\Windows\\System32\\svchost.exe 912")

	e := BuildEntry(tokens, fm, true, true, models.DirectionInternal)

	assert.True(t, e.IsAllowed)
	assert.False(t, e.IsBlocked)
	assert.True(t, e.IsInternalTraffic)
	assert.True(t, e.HasPath)
	assert.Equal(t, "C:\\Windows\\System32\\svchost.exe", e.Path)
	require.NotNil(t, e.ProtocolNumber)
	assert.Equal(t, 17, *e.ProtocolNumber)
}

func TestBuildEntryBadDateTimeFallsBackToNow(t *testing.T) {
	fm, ok := ParseFieldsDirective(stdHeader)
	require.True(t, ok)
	tokens := strings.Fields("garbage 99:99:99 DROP TCP 1.2.3.4 5.6.7.8 1 2 3 - - - - - - - - 0")

	before := time.Now()
	e := BuildEntry(tokens, fm, false, false, models.DirectionTransit)

	// Неразборчивое время заменяется текущим, запись не отбрасывается
	assert.WithinDuration(t, before, e.DateTime, 5*time.Second)
	assert.Equal(t, "DROP", e.Action)
}

func TestBuildEntryEventsLostOmitsPath(t *testing.T) {
	fm, ok := ParseFieldsDirective(stdHeader)
	require.True(t, ok)
	// 17 токенов против 18 объявленных: колонка path в этом варианте отсутствует
	tokens := strings.Fields("2025-01-15 10:00:00 INFO-EVENTS-LOST - - - - - - - - - - - - 23 -")
	require.Len(t, tokens, 17)

	e := BuildEntry(tokens, fm, false, false, models.DirectionUnknown)

	assert.Equal(t, models.ActionEventsLost, e.Action)
	assert.Equal(t, "", e.Path)
	assert.Nil(t, e.ProcessID)
	assert.False(t, e.HasPath)
	assert.False(t, e.HasProcessID)
	assert.Equal(t, "23", e.Info)
	assert.Equal(t, models.DirectionUnknown, e.Direction)
	assert.Nil(t, e.ProtocolNumber)
}

func TestBuildEntryZeroPID(t *testing.T) {
	fm, ok := ParseFieldsDirective(stdHeader)
	require.True(t, ok)
	tokens := strings.Fields("2025-01-15 10:00:00 DROP TCP 1.2.3.4 5.6.7.8 1 2 3 - - - - - - - - 0")

	e := BuildEntry(tokens, fm, false, false, models.DirectionTransit)

	// pid == 0 — идентификатор процесса отсутствует
	require.NotNil(t, e.ProcessID)
	assert.Equal(t, 0, *e.ProcessID)
	assert.False(t, e.HasProcessID)
}
