package cron

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// Entry is one cron admission candidate: {id, time, action[, serverId]}.
// HasServerID distinguishes an entry that omitted "serverId" entirely from
// one that set it to the empty string — encoding/json alone collapses that
// distinction, so the raw JSON is re-walked with gjson to recover it.
type Entry struct {
	ID          string
	Time        string
	Action      string
	ServerID    string
	HasServerID bool
}

// LoadConfig reads the cron configuration file for serverType, trying
// basePath first and falling back to a path scoped by env if basePath does
// not exist.
func LoadConfig(basePath, env, serverType string) ([]Entry, error) {
	path := basePath
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join("config", env, "crons.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cron config %s: %w", path, err)
	}
	return parseConfig(data, serverType)
}

func parseConfig(data []byte, serverType string) ([]Entry, error) {
	parsed := gjson.ParseBytes(data)
	list := parsed.Get(gjson.Escape(serverType))
	if !list.Exists() {
		return nil, nil
	}

	var entries []Entry
	var parseErr error
	list.ForEach(func(_, value gjson.Result) bool {
		var re struct {
			ID     string `json:"id"`
			Time   string `json:"time"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal([]byte(value.Raw), &re); err != nil {
			parseErr = fmt.Errorf("parsing cron entry for %s: %w", serverType, err)
			return false
		}

		serverIDResult := value.Get("serverId")
		entries = append(entries, Entry{
			ID:          re.ID,
			Time:        re.Time,
			Action:      re.Action,
			ServerID:    serverIDResult.String(),
			HasServerID: serverIDResult.Exists(),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return entries, nil
}
