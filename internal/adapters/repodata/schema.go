package repodata

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Repodata is the structure of a channel subdirectory's repodata.json file.
type Repodata struct {
	Info          InfoDTO               `json:"info"`
	Packages      map[string]PackageDTO `json:"packages"`
	CondaPackages map[string]PackageDTO `json:"packages.conda"`
}

// InfoDTO is the info section of a repodata file.
type InfoDTO struct {
	Subdir string `json:"subdir"`
}

// PackageDTO is one record entry of a repodata file.
type PackageDTO struct {
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	Build         string        `json:"build"`
	BuildNumber   uint64        `json:"build_number"`
	Depends       []string      `json:"depends"`
	Constrains    []string      `json:"constrains"`
	Subdir        string        `json:"subdir"`
	Timestamp     int64         `json:"timestamp"`
	MD5           string        `json:"md5"`
	SHA256        string        `json:"sha256"`
	Size          uint64        `json:"size"`
	TrackFeatures trackFeatures `json:"track_features"`
	Features      string        `json:"features"`
}

// trackFeatures accepts both the space or comma separated string form and a list.
type trackFeatures []string

func (t *trackFeatures) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	return nil
}

// maxSecondsTimestamp is the largest timestamp read as seconds; larger values are milliseconds.
const maxSecondsTimestamp = 253402300799

// timestampMillis normalizes a repodata timestamp to milliseconds since the epoch.
func timestampMillis(ts int64) int64 {
	if ts > maxSecondsTimestamp {
		return ts
	}
	return ts * 1000
}
