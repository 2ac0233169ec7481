package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/nicolog/internal/model"
)

// BaseDir returns the default root data directory (~/.nicolog).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".nicolog"), nil
}

// Journal stores one user's entries as one JSON file per local day.
type Journal struct {
	dir string
}

// NewJournal returns a Journal rooted at <base>/entries/<userID>.
func NewJournal(base, userID string) *Journal {
	return &Journal{dir: filepath.Join(base, "entries", userID)}
}

// Dir returns the directory holding the journal's day files.
func (j *Journal) Dir() string {
	return j.dir
}

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func (j *Journal) LoadDay(t time.Time) (model.DayFile, error) {
	path := dayFilePath(j.dir, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: t.Format("2006-01-02"), Entries: []model.Entry{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func (j *Journal) SaveDay(t time.Time, df model.DayFile) error {
	path := dayFilePath(j.dir, t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Append adds an entry to the day file of its timestamp. An entry whose ID is
// already present is rejected.
func (j *Journal) Append(entry model.Entry) error {
	df, err := j.LoadDay(entry.Timestamp)
	if err != nil {
		return err
	}
	for _, e := range df.Entries {
		if e.ID == entry.ID {
			return fmt.Errorf("storage error: entry %s already exists", entry.ID)
		}
	}
	df.Entries = append(df.Entries, entry)
	return j.SaveDay(entry.Timestamp, df)
}

// LoadRange loads all entries in [from, to] inclusive, newest first.
func (j *Journal) LoadRange(from, to time.Time) ([]model.Entry, error) {
	var entries []model.Entry
	for d := startOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		df, err := j.LoadDay(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, df.Entries...)
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})
	return entries, nil
}

// Earliest returns the local day of the oldest day file. ok is false when the
// journal is empty.
func (j *Journal) Earliest() (day time.Time, ok bool, err error) {
	years, err := readSortedDirs(j.dir)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, y := range years {
		months, err := readSortedDirs(filepath.Join(j.dir, y))
		if err != nil {
			return time.Time{}, false, err
		}
		for _, m := range months {
			files, err := os.ReadDir(filepath.Join(j.dir, y, m))
			if err != nil {
				return time.Time{}, false, fmt.Errorf("storage error listing %s: %w", filepath.Join(j.dir, y, m), err)
			}
			for _, f := range files {
				name, isDay := strings.CutSuffix(f.Name(), ".json")
				if f.IsDir() || !isDay {
					continue
				}
				d, err := time.ParseInLocation("2006/01/02", y+"/"+m+"/"+name, time.Local)
				if err != nil {
					continue
				}
				return d, true, nil
			}
		}
	}
	return time.Time{}, false, nil
}

// readSortedDirs lists the subdirectories of dir in name order. A missing dir
// has none.
func readSortedDirs(dir string) ([]string, error) {
	infos, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", dir, err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
