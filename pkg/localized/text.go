package localized

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DefaultLanguage is used when neither the selected nor the UI language has a translation
const DefaultLanguage = "en"

// Text is either a plain string or a map of language codes to translations
type Text struct {
	Plain     string
	Localized map[string]string
}

// Plain creates a Text holding a single untranslated string
func Plain(value string) Text {
	return Text{Plain: value}
}

// Translations creates a Text holding translations by language code
func Translations(values map[string]string) Text {
	return Text{Localized: values}
}

// IsLocalized reports whether the text holds translations
func (t Text) IsLocalized() bool {
	return t.Localized != nil
}

// IsEmpty reports whether the text holds no content at all
func (t Text) IsEmpty() bool {
	if t.IsLocalized() {
		for _, value := range t.Localized {
			if value != "" {
				return false
			}
		}
		return true
	}

	return t.Plain == ""
}

// Resolve picks the best translation: selected language, UI language, English, then the
// lowest language code available
func (t Text) Resolve(selected string, uiLocale string) string {
	if !t.IsLocalized() {
		return t.Plain
	}

	for _, language := range []string{selected, uiLocale, DefaultLanguage} {
		if language == "" {
			continue
		}

		if value, ok := t.Localized[language]; ok {
			return value
		}
	}

	if len(t.Localized) == 0 {
		return ""
	}

	languages := make([]string, 0, len(t.Localized))
	for language := range t.Localized {
		languages = append(languages, language)
	}
	sort.Strings(languages)

	return t.Localized[languages[0]]
}

// Value returns the text in the shape document stores keep it, a string or a map
func (t Text) Value() interface{} {
	if t.IsLocalized() {
		return t.Localized
	}

	return t.Plain
}

// From converts a stored value back into a Text
func From(value interface{}) (Text, error) {
	switch v := value.(type) {
	case nil:
		return Text{}, nil
	case string:
		return Plain(v), nil
	case map[string]string:
		return Translations(v), nil
	case map[string]interface{}:
		translations := make(map[string]string, len(v))
		for language, translation := range v {
			s, ok := translation.(string)
			if !ok {
				return Text{}, fmt.Errorf("translation %q is %T, not a string", language, translation)
			}
			translations[language] = s
		}
		return Translations(translations), nil
	}

	return Text{}, fmt.Errorf("cannot convert %T into a localized text", value)
}

// MarshalJSON writes a JSON string or object
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value())
}

// UnmarshalJSON reads a JSON string or object
func (t *Text) UnmarshalJSON(data []byte) error {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	parsed, err := From(value)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

// MarshalBSONValue writes a BSON string or embedded document
func (t Text) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Value())
}

// UnmarshalBSONValue reads a BSON string or embedded document
func (t *Text) UnmarshalBSONValue(dataType bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: dataType, Value: data}

	switch dataType {
	case bsontype.String:
		*t = Plain(raw.StringValue())
		return nil
	case bsontype.Null, bsontype.Undefined:
		*t = Text{}
		return nil
	case bsontype.EmbeddedDocument:
		translations := map[string]string{}
		if err := raw.Unmarshal(&translations); err != nil {
			return err
		}
		*t = Translations(translations)
		return nil
	}

	return fmt.Errorf("cannot decode BSON %s into a localized text", dataType)
}
