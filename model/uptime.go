package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseUptime converts the modem's uptime string into seconds.
//
// The modem reports "<days> days <HH>h:<MM>m:<SS>s", the clock token being read at the
// fixed offsets 0, 4 and 8. A plain "<HH>:<MM>:<SS>" clock token (offsets 0, 3 and 6) is
// accepted as well. Anything else is rejected with a *ParseError for the
// connection info uptime key.
func ParseUptime(s string) (int64, error) {
	seconds, err := uptimeSeconds(s)
	if err != nil {
		return 0, &ParseError{Kind: KindConnectionInfo, Key: uptimeKey, Err: err}
	}
	return seconds, nil
}

func uptimeSeconds(s string) (int64, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 3 {
		return 0, fmt.Errorf("uptime %q: expected 3 tokens, got %d", s, len(tokens))
	}

	days, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("uptime %q: days: %w", s, err)
	}
	if days < 0 {
		return 0, fmt.Errorf("uptime %q: days: %w", s, errNegative)
	}

	offsets, err := clockOffsets(tokens[2])
	if err != nil {
		return 0, fmt.Errorf("uptime %q: %w", s, err)
	}

	limits := [3]int64{24, 60, 60}
	var parts [3]int64
	for i, offset := range offsets {
		v, err := twoDigits(tokens[2][offset : offset+2])
		if err != nil {
			return 0, fmt.Errorf("uptime %q: %w", s, err)
		}
		if v >= limits[i] {
			return 0, fmt.Errorf("uptime %q: %02d out of range", s, v)
		}
		parts[i] = v
	}

	return days*86400 + parts[0]*3600 + parts[1]*60 + parts[2], nil
}

func clockOffsets(token string) ([3]int, error) {
	switch {
	case len(token) == 8 && token[2] == ':' && token[5] == ':':
		return [3]int{0, 3, 6}, nil
	case len(token) >= 10 && token[2] == 'h' && token[3] == ':' && token[6] == 'm' && token[7] == ':':
		return [3]int{0, 4, 8}, nil
	}
	return [3]int{}, fmt.Errorf("unrecognized clock %q", token)
}

var errNotTwoDigits = errors.New("expected two digits")

func twoDigits(s string) (int64, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, fmt.Errorf("%q: %w", s, errNotTwoDigits)
	}
	return int64(s[0]-'0')*10 + int64(s[1]-'0'), nil
}
