package localized

import (
	"encoding/json"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestText_Resolve(t *testing.T) {
	translations := Translations(map[string]string{
		"de": "Meditation",
		"en": "Meditation (en)",
		"cs": "Meditace",
	})

	tests := []struct {
		name     string
		text     Text
		selected string
		ui       string
		expected string
	}{
		{"plain", Plain("Yoga"), "de", "fr", "Yoga"},
		{"selected", translations, "de", "en", "Meditation"},
		{"ui fallback", translations, "fr", "cs", "Meditace"},
		{"english fallback", translations, "fr", "it", "Meditation (en)"},
		{"lowest code", Translations(map[string]string{"ru": "ru", "de": "de"}), "fr", "it", "de"},
		{"empty", Translations(map[string]string{}), "fr", "it", ""},
		{"zero", Text{}, "fr", "it", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := test.text.Resolve(test.selected, test.ui); result != test.expected {
				t.Errorf("expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestText_JSON(t *testing.T) {
	var document struct {
		Name  Text `json:"name"`
		Title Text `json:"title"`
	}

	input := `{"name":"Yoga","title":{"en":"Morning","de":"Morgen"}}`
	if err := json.Unmarshal([]byte(input), &document); err != nil {
		t.Fatal(err)
	}

	if document.Name.IsLocalized() || document.Name.Plain != "Yoga" {
		t.Errorf("unexpected name %+v", document.Name)
	}

	expected := map[string]string{"en": "Morning", "de": "Morgen"}
	if !reflect.DeepEqual(document.Title.Localized, expected) {
		t.Errorf("expected %v, got %v", expected, document.Title.Localized)
	}

	output, err := json.Marshal(document)
	if err != nil {
		t.Fatal(err)
	}

	if string(output) != `{"name":"Yoga","title":{"de":"Morgen","en":"Morning"}}` {
		t.Errorf("unexpected output %s", output)
	}
}

func TestText_JSON_RejectsNumbers(t *testing.T) {
	var text Text
	if err := json.Unmarshal([]byte(`{"en": 5}`), &text); err == nil {
		t.Error("expected an error for a non-string translation")
	}
}

func TestText_BSON(t *testing.T) {
	type document struct {
		Name  Text `bson:"name"`
		Title Text `bson:"title"`
	}

	input := document{
		Name:  Plain("Yoga"),
		Title: Translations(map[string]string{"en": "Morning"}),
	}

	data, err := bson.Marshal(input)
	if err != nil {
		t.Fatal(err)
	}

	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}

	if raw["name"] != "Yoga" {
		t.Errorf("expected name to be stored as string, got %T", raw["name"])
	}

	var output document
	if err := bson.Unmarshal(data, &output); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(input, output) {
		t.Errorf("expected %+v, got %+v", input, output)
	}
}

func TestFrom(t *testing.T) {
	text, err := From(map[string]interface{}{"en": "Hello"})
	if err != nil {
		t.Fatal(err)
	}

	if text.Resolve("", "") != "Hello" {
		t.Errorf("unexpected text %+v", text)
	}

	if _, err := From(42); err == nil {
		t.Error("expected an error for an integer")
	}
}
