package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/swoga/moto-exporter/model"
)

const (
	channelSeparator = "|+|"
	logSeparator     = "}-{"
	cellSeparator    = "^"
)

var (
	downstreamColumns = []string{"Channel", "LockStatus", "Modulation", "ChannelID", "Frequency", "Power", "SNR", "Corrected", "Uncorrected"}
	upstreamColumns   = []string{"Channel", "LockStatus", "ChannelType", "ChannelID", "SymbolRate", "Frequency", "Power"}
	logColumns        = []string{"Time", "Date", "Level", "Message"}
)

func (c *Client) GetConnectionInfo(ctx context.Context) (model.Raw, error) {
	return c.fields(ctx, "GetMotoStatusConnectionInfo")
}

func (c *Client) GetConnectionHome(ctx context.Context) (model.Raw, error) {
	return c.fields(ctx, "GetHomeConnection")
}

func (c *Client) GetConnectionAddress(ctx context.Context) (model.Raw, error) {
	return c.fields(ctx, "GetHomeAddress")
}

func (c *Client) GetDownstreamChannels(ctx context.Context) ([]model.Raw, error) {
	return c.list(ctx, "GetMotoStatusDownstreamChannelInfo", "MotoConnDownstreamChannel", channelSeparator, downstreamColumns)
}

func (c *Client) GetUpstreamChannels(ctx context.Context) ([]model.Raw, error) {
	return c.list(ctx, "GetMotoStatusUpstreamChannelInfo", "MotoConnUpstreamChannel", channelSeparator, upstreamColumns)
}

func (c *Client) GetLogs(ctx context.Context) ([]model.Raw, error) {
	return c.list(ctx, "GetMotoStatusLog", "MotoStatusLogList", logSeparator, logColumns)
}

func (c *Client) fields(ctx context.Context, action string) (model.Raw, error) {
	response, err := c.do(ctx, action, map[string]string{}, c.session())
	if err != nil {
		return nil, err
	}
	return toRaw(response), nil
}

func (c *Client) list(ctx context.Context, action, key, separator string, columns []string) ([]model.Raw, error) {
	response, err := c.do(ctx, action, map[string]string{}, c.session())
	if err != nil {
		return nil, err
	}
	if !response.Exists(key) {
		return nil, &DeviceError{Action: action, Err: fmt.Errorf("response without %s", key)}
	}
	value, ok := response.Search(key).Data().(string)
	if !ok {
		return nil, &DeviceError{Action: action, Err: fmt.Errorf("%s is not a string", key)}
	}
	records, err := splitRecords(value, separator, columns)
	if err != nil {
		return nil, &DeviceError{Action: action, Err: err}
	}
	return records, nil
}

// splitRecords turns "a^b^c^|+|d^e^f^" style lists into one field map per record.
// Cells are trimmed; the last column keeps any further separators.
func splitRecords(list, separator string, columns []string) ([]model.Raw, error) {
	var records []model.Raw
	for i, record := range strings.Split(list, separator) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		cells := strings.SplitN(record, cellSeparator, len(columns))
		if len(cells) < len(columns) {
			return nil, fmt.Errorf("record %d: %d cells, want %d", i, len(cells), len(columns))
		}
		last := len(cells) - 1
		cells[last] = strings.TrimSuffix(strings.TrimSpace(cells[last]), cellSeparator)

		raw := make(model.Raw, len(columns))
		for j, column := range columns {
			raw[column] = strings.TrimSpace(cells[j])
		}
		records = append(records, raw)
	}
	return records, nil
}

// toRaw flattens the scalar members of a response object into strings.
func toRaw(container *gabs.Container) model.Raw {
	raw := model.Raw{}
	for key, child := range container.ChildrenMap() {
		switch v := child.Data().(type) {
		case string:
			raw[key] = v
		case json.Number:
			raw[key] = v.String()
		case float64:
			raw[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			raw[key] = strconv.FormatBool(v)
		}
	}
	return raw
}
