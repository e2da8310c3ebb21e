package testsupport

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-query-cache/querycache"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadRecords loads a JSON array of objects as database rows. Whole numbers
// become int64, the way SQL drivers report integer columns.
func LoadRecords(t testing.TB, path string) []querycache.Record {
	t.Helper()

	var raw []map[string]any
	LoadFixtureJSON(t, path, &raw)

	rows := make([]querycache.Record, 0, len(raw))
	for _, r := range raw {
		row := make(querycache.Record, len(r))
		for k, v := range r {
			if f, ok := v.(float64); ok && f == math.Trunc(f) {
				row[k] = int64(f)
				continue
			}
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
