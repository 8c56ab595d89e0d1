package runlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"robostock/internal/types"
)

// Entry is one line of the journal: a contained failure or a run summary.
type Entry struct {
	Time    string `json:"time"`
	RunID   string `json:"run_id"`
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Field   string `json:"field,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Soft    bool   `json:"soft,omitempty"`
	Status  string `json:"status,omitempty"`

	Analysed int `json:"analysed,omitempty"`
	Failed   int `json:"failed,omitempty"`
	Ranked   int `json:"ranked,omitempty"`
}

const (
	TypeFailure = "FAILURE"
	TypeSummary = "SUMMARY"
)

// Journal appends JSON lines to one file per day under dir.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// Path returns the journal file for t.
func (j *Journal) Path(t time.Time) string {
	return filepath.Join(j.dir, "runs", t.Format("2006-01-02")+".jsonl")
}

// Append writes entries in order under one lock.
func (j *Journal) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	p := j.Path(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if e.Time == "" {
			e.Time = now.Format(time.RFC3339)
		}
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// RecordRun journals every failure of the run followed by a summary line.
func (j *Journal) RecordRun(run *types.ScreenRun) error {
	var entries []Entry
	failed := 0
	for _, r := range run.Results {
		if r.Status == types.StatusFailed {
			failed++
		}
		for _, f := range r.Failures {
			entries = append(entries, Entry{
				RunID:   run.RunID,
				Type:    TypeFailure,
				Symbol:  r.Symbol,
				Stage:   f.Stage,
				Field:   f.Field,
				Kind:    string(f.Kind),
				Message: f.Message,
				Soft:    f.Soft,
				Status:  string(r.Status),
			})
		}
	}
	entries = append(entries, Entry{
		RunID:    run.RunID,
		Type:     TypeSummary,
		Analysed: len(run.Results),
		Failed:   failed,
		Ranked:   run.Table.Len(),
	})
	return j.Append(entries...)
}

// Read loads every entry of a journal file.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips journal files last modified before the retention
// window and removes the originals.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	root := filepath.Join(j.dir, "runs")
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			os.Remove(gz)
			return nil
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return out.Close()
}
