package civic

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Level is the jurisdictional level of an office.
type Level string

const (
	Federal Level = "Federal"
	State   Level = "State"
	Local   Level = "Local"
)

// ErrUnknownLevel is returned for a level tag outside the mapping table.
var ErrUnknownLevel = errors.New("unknown jurisdiction level")

var levelTags = map[string]Level{
	"country":             Federal,
	"administrativeArea1": State,
	"administrativeArea2": Local,
	"regional":            Local,
	"locality":            Local,
	"subLocality1":        Local,
	"subLocality2":        Local,
	"Federal":             Federal,
	"State":               State,
	"Local":               Local,
}

// ParseLevel maps a provider level tag onto a Level.
func ParseLevel(tag string) (Level, error) {
	level, ok := levelTags[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, tag)
	}
	return level, nil
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	level, err := ParseLevel(tag)
	if err != nil {
		return err
	}
	*l = level
	return nil
}
