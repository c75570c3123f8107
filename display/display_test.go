package display

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swoga/moto-exporter/collect"
	"github.com/swoga/moto-exporter/model"
	"github.com/xuri/excelize/v2"
)

type table struct {
	title  string
	header []string
	rows   [][]string
}

type recordingRenderer struct {
	tables []table
}

func (r *recordingRenderer) Table(title string, header []string, rows [][]string) error {
	r.tables = append(r.tables, table{title: title, header: header, rows: rows})
	return nil
}

func TestEmitter_DownstreamSorted(t *testing.T) {
	renderer := &recordingRenderer{}
	channels := []model.DownstreamChannel{
		{Channel: 3, ChannelID: 23, LockStatus: "Locked", Modulation: "QAM256", Frequency: 579, Power: 2.8, SNR: 40.9, Corrected: 1, Uncorrected: 0},
		{Channel: 1, ChannelID: 21, LockStatus: "Locked", Modulation: "QAM256", Frequency: 567, Power: -1.5, SNR: 38.2, Corrected: 24, Uncorrected: 3},
	}

	require.NoError(t, NewEmitter(renderer).DownstreamChannels(context.Background(), channels))

	require.Len(t, renderer.tables, 1)
	tbl := renderer.tables[0]
	assert.Equal(t, "Downstream Channels", tbl.title)
	assert.Len(t, tbl.header, 9)
	assert.Equal(t, []string{"1", "Locked", "QAM256", "21", "567", "-1.5", "38.2", "24", "3"}, tbl.rows[0])
	assert.Equal(t, "3", tbl.rows[1][0])
	assert.Equal(t, 3, channels[0].Channel, "input must not be reordered")
}

func TestEmitter_LogsSorted(t *testing.T) {
	renderer := &recordingRenderer{}
	base := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	err := NewEmitter(renderer).Logs(context.Background(), []model.LogEntry{
		{Timestamp: base.Add(time.Hour), Level: "Notice (6)", Message: "later"},
		{Timestamp: base, Level: "Critical (3)", Message: "earlier"},
	})
	require.NoError(t, err)

	rows := renderer.tables[0].rows
	assert.Equal(t, []string{"2024-03-05T10:00:00Z", "Critical (3)", "earlier"}, rows[0])
	assert.Equal(t, "later", rows[1][2])
}

func TestEmitter_SingleRecords(t *testing.T) {
	renderer := &recordingRenderer{}
	e := NewEmitter(renderer)
	ctx := context.Background()

	require.NoError(t, e.ConnectionHome(ctx, model.ConnectionHome{Online: "Connected", Status: "OK", DownChannels: 32, UpChannels: 4}))
	require.NoError(t, e.ConnectionInfo(ctx, model.ConnectionInfo{UptimeSeconds: 444942, NetworkAccess: "Allowed", ConnectionStatus: "OK"}))
	require.NoError(t, e.ConnectionAddress(ctx, model.ConnectionAddress{MAC: "m", IPv4: "4", IPv6: "6", Version: "v", Result: "OK"}))
	require.NoError(t, e.UpstreamChannels(ctx, []model.UpstreamChannel{{Channel: 1, ChannelID: 4, SymbolRate: 5120, Frequency: 16.4, Power: 44}}))

	require.Len(t, renderer.tables, 4)
	assert.Equal(t, [][]string{{"Connected", "OK", "32", "4"}}, renderer.tables[0].rows)
	assert.Equal(t, [][]string{{"444942", "Allowed", "OK"}}, renderer.tables[1].rows)
	assert.Equal(t, "Connection Address", renderer.tables[2].title)
	assert.Equal(t, []string{"1", "", "", "4", "5120", "16.4", "44"}, renderer.tables[3].rows[0])
}

func TestConsole_Table(t *testing.T) {
	var buf bytes.Buffer
	err := NewConsole(&buf).Table("Connection Home", []string{"Online", "Status"}, [][]string{{"Connected", "OK"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Connection Home")
	assert.Contains(t, out, "Online")
	assert.Contains(t, out, "Connected")
}

func TestXLSX_SheetPerTable(t *testing.T) {
	x := NewXLSX()
	require.NoError(t, x.Table("Connection Home", []string{"Online", "Status"}, [][]string{{"Connected", "OK"}}))
	require.NoError(t, x.Table("Logs", []string{"Timestamp", "Level", "Message"}, [][]string{{"t", "l", "m"}}))

	path := filepath.Join(t.TempDir(), "dump.xlsx")
	require.NoError(t, x.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Connection Home", "Logs"}, f.GetSheetList())
	value, err := f.GetCellValue("Connection Home", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Connected", value)
	value, err = f.GetCellValue("Logs", "C1")
	require.NoError(t, err)
	assert.Equal(t, "Message", value)
}

func TestPDF_Save(t *testing.T) {
	p := NewPDF("Modem Status")
	require.NoError(t, p.Table("Connection Home", []string{"Online", "Status"}, [][]string{{"Connected", "OK"}}))

	path := filepath.Join(t.TempDir(), "dump.pdf")
	require.NoError(t, p.Save(path))
	assert.FileExists(t, path)
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.StepStarted(collect.StepLogin)
	p.StepFinished(collect.StepResult{Step: collect.StepLogin})
	p.StepStarted(collect.StepDownstreamChannels)
	p.StepFinished(collect.StepResult{Step: collect.StepDownstreamChannels, Records: 32, Duration: 1500 * time.Millisecond})
	p.StepStarted(collect.StepLogs)
	p.StepFinished(collect.StepResult{Step: collect.StepLogs, Err: errors.New("timeout")})

	assert.Equal(t, "Logging in... done\n"+
		"Getting downstream channels... 32 records (1.5s)\n"+
		"Getting logs... failed: timeout\n", buf.String())
}
