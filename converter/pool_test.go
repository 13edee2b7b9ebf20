package converter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbs-sci/PASR/contracts"
	"github.com/rbs-sci/PASR/stack"
)

func TestProcessDirectoryIsolatesFailures(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	for _, name := range []string{"a.mrc", "b.mrc", "c.mrc"} {
		mustWriteMRC(t, filepath.Join(in, name), stack.New(stack.Int16, 2, 1, 2, 2))
	}
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		t.Fatal(err)
	}
	jobs := make([]contracts.Job, 0, len(entries))
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		base := strings.TrimSuffix(e.Name(), ext)
		jobs = append(jobs, contracts.Job{
			InputPath:   filepath.Join(in, e.Name()),
			OutputPath:  filepath.Join(out, base+"_PASR_2x"+ext),
			Scale:       2,
			Compression: contracts.CompressionLZW,
		})
	}

	reported := 0
	results := ProcessDirectory(jobs, 2, func(contracts.Result) { reported++ })

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if reported != 4 {
		t.Errorf("report callback ran %d times, want 4", reported)
	}

	fails := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		fails++
		if !errors.Is(r.Err, contracts.ErrUnsupportedInputFormat) {
			t.Errorf("%s failed with %v, want the unsupported-input sentinel", r.Job.InputPath, r.Err)
		}
	}
	if fails != 1 {
		t.Errorf("%d jobs failed, want exactly 1", fails)
	}

	for _, name := range []string{"a_PASR_2x.mrc", "b_PASR_2x.mrc", "c_PASR_2x.mrc"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestProcessDirectoryEmptyPlan(t *testing.T) {
	if res := ProcessDirectory(nil, 4, nil); len(res) != 0 {
		t.Fatalf("got %d results for an empty plan", len(res))
	}
}

func TestProcessDirectoryMoreWorkersThanJobs(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	mustWriteMRC(t, filepath.Join(in, "a.mrc"), stack.New(stack.Int16, 2, 1, 2, 2))

	jobs := []contracts.Job{{
		InputPath:   filepath.Join(in, "a.mrc"),
		OutputPath:  filepath.Join(out, "a_PASR_2x.mrc"),
		Scale:       2,
		Compression: contracts.CompressionLZW,
	}}
	results := ProcessDirectory(jobs, 16, nil)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v, want one success", results)
	}
}
