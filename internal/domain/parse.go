package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors let the router pick the right reply template without
// inspecting error text.
var (
	ErrSyntax        = errors.New("bad argument syntax")
	ErrUnknownMarket = errors.New("unknown market")
	ErrUnknownMode   = errors.New("unknown mode")
)

// ParseAddArgs parses "/add <market> <article> [description...]".
// The market must be in the configured allow-list and the article must be
// an integer.
func ParseAddArgs(markets []string, args string) (market string, article int64, description string, err error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, "", ErrSyntax
	}
	market = fields[0]
	article, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, "", ErrSyntax
	}
	if !containsMarket(markets, market) {
		return "", 0, "", ErrUnknownMarket
	}
	description = strings.Join(fields[2:], " ")
	return market, article, description, nil
}

// ParseDelArgs parses "/del <market> <article>".
func ParseDelArgs(markets []string, args string) (market string, article int64, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, ErrSyntax
	}
	market = fields[0]
	article, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", 0, ErrSyntax
	}
	if !containsMarket(markets, market) {
		return "", 0, ErrUnknownMarket
	}
	return market, article, nil
}

// ParseTimeArgs parses "/time H:MM" or "/time H:MM <tz>". When the tz part
// is omitted the caller's stored offset is returned unchanged.
func ParseTimeArgs(args string, currentTZ int) (hour, minute, tz int, err error) {
	fields := strings.Fields(args)
	tz = currentTZ
	switch len(fields) {
	case 1:
	case 2:
		tz, err = ParseTimezone(fields[1])
		if err != nil {
			return 0, 0, 0, err
		}
	default:
		return 0, 0, 0, ErrSyntax
	}
	hour, minute, err = parseHHMM(fields[0])
	if err != nil {
		return 0, 0, 0, err
	}
	return hour, minute, tz, nil
}

// ParseTimezone parses a signed integer hour offset and bounds it to the
// range of real UTC offsets.
func ParseTimezone(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	tz, err := strconv.Atoi(strings.TrimPrefix(arg, "+"))
	if err != nil {
		return 0, ErrSyntax
	}
	if tz < TimezoneMin || tz > TimezoneMax {
		return 0, fmt.Errorf("%w: offset %d out of range [%d, %d]", ErrSyntax, tz, TimezoneMin, TimezoneMax)
	}
	return tz, nil
}

// ParseMode maps a mode name to its code by position in the configured
// mode-name list.
func ParseMode(names []string, arg string) (Mode, error) {
	arg = strings.TrimSpace(arg)
	for i, n := range names {
		if n == arg {
			return Mode(i), nil
		}
	}
	return 0, ErrUnknownMode
}

func parseHHMM(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, ErrSyntax
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrSyntax
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrSyntax
	}
	return hour, minute, nil
}

func containsMarket(markets []string, m string) bool {
	for _, v := range markets {
		if v == m {
			return true
		}
	}
	return false
}
