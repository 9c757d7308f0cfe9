package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func resetLimit(t *testing.T) {
	t.Helper()
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })
}

func TestConfigure_NothingSet(t *testing.T) {
	resetLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")
	t.Setenv("MEMORY_RATIO", "")

	result := Configure("")

	if result.Configured {
		t.Error("Expected Configured to be false when nothing is set")
	}
	if result.Source != sourceNone {
		t.Errorf("Expected Source to be %q, got %q", sourceNone, result.Source)
	}
	if result.GoMemLimit != 0 || result.ContainerLimit != 0 || result.Ratio != 0 {
		t.Errorf("Expected zero limits, got %+v", result)
	}
}

func TestConfigure_ConfiguredLimit(t *testing.T) {
	resetLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "536870912")
	t.Setenv("MEMORY_RATIO", "")

	result := Configure("1GiB")

	if !result.Configured {
		t.Fatal("Expected Configured to be true")
	}
	if result.Source != sourceConfig {
		t.Errorf("Expected Source to be %q, got %q", sourceConfig, result.Source)
	}
	if result.ContainerLimit != 1<<30 {
		t.Errorf("Expected ContainerLimit to be %d, got %d", 1<<30, result.ContainerLimit)
	}
	ratio := DefaultMemoryRatio
	want := int64(float64(1<<30) * ratio)
	if result.GoMemLimit != want {
		t.Errorf("Expected GoMemLimit to be %d, got %d", want, result.GoMemLimit)
	}
	if got := debug.SetMemoryLimit(-1); got != want {
		t.Errorf("Expected runtime limit %d, got %d", want, got)
	}
}

func TestConfigure_MemoryLimitEnv(t *testing.T) {
	tests := []struct {
		name      string
		limit     string
		ratio     string
		wantRatio float64
		wantSet   bool
	}{
		{name: "plain bytes", limit: "1073741824", wantRatio: DefaultMemoryRatio, wantSet: true},
		{name: "custom ratio", limit: "1073741824", ratio: "0.5", wantRatio: 0.5, wantSet: true},
		{name: "ratio of one", limit: "1073741824", ratio: "1.0", wantRatio: 1.0, wantSet: true},
		{name: "ratio out of range", limit: "1073741824", ratio: "1.5", wantRatio: DefaultMemoryRatio, wantSet: true},
		{name: "zero ratio", limit: "1073741824", ratio: "0", wantRatio: DefaultMemoryRatio, wantSet: true},
		{name: "unparseable ratio", limit: "1073741824", ratio: "half", wantRatio: DefaultMemoryRatio, wantSet: true},
		{name: "invalid limit", limit: "lots", wantSet: false},
		{name: "negative limit", limit: "-1024", wantSet: false},
		{name: "zero limit", limit: "0", wantSet: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			result := Configure("")

			if result.Configured != tt.wantSet {
				t.Fatalf("Expected Configured %v, got %v", tt.wantSet, result.Configured)
			}
			if !tt.wantSet {
				if result.Source != sourceNone {
					t.Errorf("Expected Source %q, got %q", sourceNone, result.Source)
				}
				return
			}
			if result.Source != sourceMEMORYLIMIT {
				t.Errorf("Expected Source %q, got %q", sourceMEMORYLIMIT, result.Source)
			}
			if result.Ratio != tt.wantRatio {
				t.Errorf("Expected Ratio %v, got %v", tt.wantRatio, result.Ratio)
			}
			want := int64(float64(1073741824) * tt.wantRatio)
			if result.GoMemLimit != want {
				t.Errorf("Expected GoMemLimit %d, got %d", want, result.GoMemLimit)
			}
		})
	}
}

func TestConfigure_GOMEMLIMITTakesPrecedence(t *testing.T) {
	resetLimit(t)
	t.Setenv("GOMEMLIMIT", "500MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	// GOMEMLIMIT is only read by the runtime at startup; simulate its effect.
	debug.SetMemoryLimit(500 << 20)

	result := Configure("2GiB")

	if result.Source != sourceGOMEMLIMIT {
		t.Errorf("Expected Source %q, got %q", sourceGOMEMLIMIT, result.Source)
	}
	if result.GoMemLimit != 500<<20 {
		t.Errorf("Expected GoMemLimit %d, got %d", 500<<20, result.GoMemLimit)
	}
	if got := debug.SetMemoryLimit(-1); got != 500<<20 {
		t.Errorf("Expected runtime limit to be left alone, got %d", got)
	}
}

func TestConfigure_GOMEMLIMITWithoutEffectiveLimit(t *testing.T) {
	resetLimit(t)
	t.Setenv("GOMEMLIMIT", "off")
	debug.SetMemoryLimit(math.MaxInt64)

	result := Configure("")

	if result.Configured {
		t.Error("Expected Configured to be false with no effective limit")
	}
	if result.Source != sourceNone {
		t.Errorf("Expected Source %q, got %q", sourceNone, result.Source)
	}
}
