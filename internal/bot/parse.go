package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"relay_bot/internal/model"
)

// ParseMinutes parses the first argument of /set as a whole number of
// minutes. Values outside the accepted interval range are rejected.
func ParseMinutes(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, errors.New("minutes are required")
	}
	mins, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", fields[0])
	}
	if !model.ValidInterval(mins) {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidInterval, mins)
	}
	return mins, nil
}

// Ad command actions.
const (
	adStatus   = ""
	adOn       = "on"
	adOff      = "off"
	adReset    = "reset"
	adInterval = "interval"
	adLimit    = "limit"
	adContent  = "content"
)

// AdArgs holds a parsed /ad command.
type AdArgs struct {
	Action  string
	Number  int
	Content string
}

// ParseAdArgs parses the arguments of /ad.
// Format: [on|off|reset|interval <min>|limit <n>|content <html>]
func ParseAdArgs(args string) (AdArgs, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return AdArgs{Action: adStatus}, nil
	}

	action, rest, _ := strings.Cut(args, " ")
	action = strings.ToLower(action)
	rest = strings.TrimSpace(rest)

	switch action {
	case adOn, adOff, adReset:
		return AdArgs{Action: action}, nil
	case adInterval:
		mins, err := ParseMinutes(rest)
		if err != nil {
			return AdArgs{}, err
		}
		return AdArgs{Action: action, Number: mins}, nil
	case adLimit:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return AdArgs{}, fmt.Errorf("limit must be a non-negative number, got %q", rest)
		}
		return AdArgs{Action: action, Number: n}, nil
	case adContent:
		return AdArgs{Action: action, Content: rest}, nil
	default:
		return AdArgs{}, fmt.Errorf("unknown ad action %q", action)
	}
}

// broadcastTarget maps a broadcast command to its target set.
func broadcastTarget(cmd string) (model.TargetSet, bool) {
	switch cmd {
	case cmdBroadcast:
		return model.TargetAll, true
	case cmdBroadcastGroups:
		return model.TargetGroups, true
	case cmdBroadcastUsers:
		return model.TargetIndividuals, true
	default:
		return "", false
	}
}
