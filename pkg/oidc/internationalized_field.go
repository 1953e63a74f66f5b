package oidc

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type languageMap = map[language.Tag]string

// InternationalizedField models a JSON field that is used to represent [Human-Readable Client Metadata].
//
// It references human-readable values and may be represented in multiple languages and scripts.
//
// To specify the languages and scripts, BCP 47 [RFC5646] language tags are added to client metadata member names,
// delimited by a "#" character.
//
// For example, a client could represent its name in English as
//
//	"client_name#en": "My Client"
//
// and its name in Japanese as
//
//	"client_name#ja-Jpan-JP": "クライアント名"
//
// within the same registration request.
//
// [Human-Readable Client Metadata]: https://www.rfc-editor.org/rfc/rfc7591#section-2.2
type InternationalizedField struct {
	FieldName string
	Entries   languageMap
}

func NewInternationalizedField(fieldName string) InternationalizedField {
	return InternationalizedField{
		FieldName: fieldName,
		Entries:   make(languageMap),
	}
}

func (i *InternationalizedField) insertEntry(key string, value json.RawMessage) error {
	var valStr string
	if err := json.Unmarshal(value, &valStr); err != nil {
		return fmt.Errorf("invalid value type for %s, expected string: %w", i.FieldName, err)
	}
	if key == i.FieldName {
		i.Entries[language.Und] = valStr
		return nil
	}
	tagged, found := strings.CutPrefix(key, i.FieldName+"#")
	if !found {
		return fmt.Errorf("invalid format for %s: %q", i.FieldName, key)
	}
	langTag, err := language.Parse(tagged)
	if err != nil {
		return fmt.Errorf("failed to parse language tag for %s: %w", i.FieldName, err)
	}
	i.Entries[langTag] = valStr
	return nil
}

// collectEntries gathers all tagged variants of the field from raw
// JSON object data, e.g. "client_name#ja-Jpan-JP".
func (i *InternationalizedField) collectEntries(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if !strings.HasPrefix(key, i.FieldName+"#") {
			continue
		}
		if i.Entries == nil {
			i.Entries = make(languageMap)
		}
		if err := i.insertEntry(key, value); err != nil {
			return err
		}
	}
	return nil
}

// taggedEntries exports the entries as JSON object members, the
// language tag appended to the field name. The Und entry maps to the
// plain field name.
func (i *InternationalizedField) taggedEntries() map[string]any {
	if len(i.Entries) == 0 {
		return nil
	}
	res := make(map[string]any, len(i.Entries))
	for lang, name := range i.Entries {
		if lang == language.Und {
			res[i.FieldName] = name
		} else {
			res[fmt.Sprintf("%s#%s", i.FieldName, lang)] = name
		}
	}
	return res
}

func (i *InternationalizedField) GetDefaultEntry() string {
	val := i.GetEntry(language.Und)
	if val == "" {
		for _, v := range i.Entries {
			// return any entry
			return v
		}
	}
	return val
}

func (i *InternationalizedField) GetEntry(lang language.Tag) string {
	return i.Entries[lang]
}
