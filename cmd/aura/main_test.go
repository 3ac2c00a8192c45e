package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

func Test_dataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	if got, want := dataDir(), filepath.Join(dir, "aurahealth"); got != want {
		t.Fatalf("dataDir=%q, want %q", got, want)
	}
}

func Test_deviceSecret_Persists(t *testing.T) {
	dir := t.TempDir()
	first, err := deviceSecret(dir)
	if err != nil {
		t.Fatalf("deviceSecret: %v", err)
	}
	if len(first) == 0 {
		t.Fatalf("empty secret")
	}
	second, err := deviceSecret(dir)
	if err != nil {
		t.Fatalf("deviceSecret reload: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("secret changed between calls")
	}
}

func Test_splitTags(t *testing.T) {
	got := splitTags(" fatigue, pain ,,dizziness ")
	want := []string{"fatigue", "pain", "dizziness"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitTags=%v, want %v", got, want)
	}
	if splitTags("  ") != nil {
		t.Fatalf("blank input should yield nil")
	}
}

func Test_parseSymptomFlags(t *testing.T) {
	flags, err := parseSymptomFlags([]string{"heavy_bleeding", "lowHb", "irregular_cycles"})
	if err != nil {
		t.Fatalf("parseSymptomFlags: %v", err)
	}
	want := model.SymptomFlags{HeavyBleeding: true, LowHb: true, IrregularCycles: true}
	if flags != want {
		t.Fatalf("flags=%+v, want %+v", flags, want)
	}

	if _, err := parseSymptomFlags([]string{"telepathy"}); err == nil {
		t.Fatalf("want error for unknown symptom")
	}
}
