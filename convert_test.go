package cascata

import (
	"testing"
	"time"
)

func TestConvertTime_Idempotent(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	got, err := convertTime(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != now {
		t.Fatalf("already-converted value changed: %v", got)
	}
}

func TestConvertTime_DateWidensToMidnight(t *testing.T) {
	got, err := convertTime("2024-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConvertTime_ParsesRFC3339(t *testing.T) {
	got, err := convertTime(" 2024-06-01T10:20:30Z ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 6, 1, 10, 20, 30, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConvertTime_RejectsGarbage(t *testing.T) {
	if _, err := convertTime("not a date"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := convertTime(42); err == nil {
		t.Fatalf("expected error for non-string, non-time value")
	}
}

func TestConvertPath(t *testing.T) {
	got, err := convertPath("/etc/app.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(Path) != Path("/etc/app.toml") {
		t.Fatalf("got %v", got)
	}
	again, err := convertPath(got)
	if err != nil || again != got {
		t.Fatalf("path conversion not idempotent: %v %v", again, err)
	}
	if _, err := convertPath(7); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}

func TestBuildRegistry_TogglesAndPrecedence(t *testing.T) {
	o := newOptions(nil)
	reg := buildRegistry(o)
	if reg[pathType] == nil || reg[timeType] == nil {
		t.Fatalf("built-ins missing from default registry")
	}

	o = newOptions([]Option{WithoutPathConversion(), WithoutDateConversion()})
	reg = buildRegistry(o)
	if reg[pathType] != nil || reg[timeType] != nil {
		t.Fatalf("disabled built-ins still registered")
	}

	custom := func(raw any) (any, error) { return Path("custom"), nil }
	o = newOptions([]Option{WithConverter(Path(""), custom)})
	reg = buildRegistry(o)
	got, err := reg[pathType]("whatever")
	if err != nil || got.(Path) != Path("custom") {
		t.Fatalf("user converter should override built-in, got %v %v", got, err)
	}
}
