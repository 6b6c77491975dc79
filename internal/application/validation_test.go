package application

import (
	"reflect"
	"testing"
)

func TestValidateStruct_RoomInput(t *testing.T) {
	t.Parallel()

	negative := -1
	vErr := validateStruct(RoomInput{
		Name:              "",
		Capacity:          0,
		Color:             "blue",
		CancellationHours: &negative,
	})
	want := map[string]string{
		"name":               msgRequired,
		"capacity":           msgPositive,
		"color":              msgInvalid,
		"cancellation_hours": msgNotNegative,
	}
	if !reflect.DeepEqual(vErr.FieldErrors, want) {
		t.Fatalf("expected %v, got %v", want, vErr.FieldErrors)
	}

	ok := validateStruct(RoomInput{Name: "X", Capacity: 4, Color: "#000000"})
	if ok.HasErrors() {
		t.Fatalf("expected valid input, got %v", ok.FieldErrors)
	}
}

func TestValidateStruct_Settings(t *testing.T) {
	t.Parallel()

	vErr := validateStruct(Settings{OrganizationName: "Org", Timezone: "Mars/Olympus"})
	if vErr.FieldErrors["timezone"] != msgInvalid {
		t.Fatalf("expected timezone error, got %v", vErr.FieldErrors)
	}
	if ok := validateStruct(Settings{OrganizationName: "Org", Timezone: "Asia/Tokyo"}); ok.HasErrors() {
		t.Fatalf("expected valid settings, got %v", ok.FieldErrors)
	}
}

func TestSnakeCase(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Name":               "name",
		"MinDurationMinutes": "min_duration_minutes",
		"ImageURLs":          "image_urls",
		"DisplayName":        "display_name",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Fatalf("snakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	t.Parallel()

	got := normalizeList([]string{" projector ", "", "  ", "whiteboard"})
	if !reflect.DeepEqual(got, []string{"projector", "whiteboard"}) {
		t.Fatalf("unexpected list %v", got)
	}
	if got := normalizeList(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
