package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Policy area names, in the order the group phase debates them.
const (
	AreaAccess        = "Access to Education"
	AreaLanguage      = "Language Instruction"
	AreaTeachers      = "Teacher Training"
	AreaCurriculum    = "Curriculum Adaptation"
	AreaPsychosocial  = "Psychosocial Support"
	AreaFinancial     = "Financial Support"
	AreaCertification = "Certification/Accreditation"
)

// MinOption and MaxOption bound the option numbers of every policy area.
const (
	MinOption = 1
	MaxOption = 3
)

// PolicyArea is a decision category with three options of rising cost.
type PolicyArea struct {
	Name    string
	Options [MaxOption]string
}

// Option returns the description of option n, or "" when n is out of range.
func (a PolicyArea) Option(n int) string {
	if !ValidOption(n) {
		return ""
	}
	return a.Options[n-1]
}

// ValidOption reports whether n is an option number.
func ValidOption(n int) bool {
	return n >= MinOption && n <= MaxOption
}

// OptionKey returns the wire key for option n ("Option 2").
func OptionKey(n int) string {
	return "Option " + strconv.Itoa(n)
}

// Catalog is an ordered list of policy areas. It marshals to a JSON object
// keyed by area name while keeping the declaration order.
type Catalog []PolicyArea

// DefaultCatalog returns the refugee-education policy areas of the Republic of Bean.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: AreaAccess, Options: [MaxOption]string{
			"Limit access to education for refugees, allowing only a small percentage to enroll in mainstream schools.",
			"Establish separate schools or learning centers specifically for refugee education.",
			"Provide equal access to education for all, and integrate refugee students into mainstream schools.",
		}},
		{Name: AreaLanguage, Options: [MaxOption]string{
			"Maintain the current policy of teaching only Teanish in schools.",
			"Provide primary Teanish language courses to refugees.",
			"Implement comprehensive bilingual education programs.",
		}},
		{Name: AreaTeachers, Options: [MaxOption]string{
			"Provide minimal or no specific training for teachers regarding refugee education.",
			"Offer basic training sessions for teachers to familiarize them with refugee needs.",
			"Implement comprehensive and ongoing training programs for teachers.",
		}},
		{Name: AreaCurriculum, Options: [MaxOption]string{
			"Maintain the existing national curriculum without modifications.",
			"Introduce supplementary materials that acknowledge refugee experiences.",
			"Adapt the national curriculum to include diverse perspectives and cultural elements.",
		}},
		{Name: AreaPsychosocial, Options: [MaxOption]string{
			"Provide limited or no specific psychosocial support for refugee students.",
			"Establish basic support services such as counseling and peer support programs.",
			"Develop comprehensive and specialized psychosocial support programs.",
		}},
		{Name: AreaFinancial, Options: [MaxOption]string{
			"Allocate minimal funds to support refugee education.",
			"Increase financial support for refugee education, though still insufficient.",
			"Allocate significant financial resources to ensure adequate funding.",
		}},
		{Name: AreaCertification, Options: [MaxOption]string{
			"Only recognize educational qualifications obtained within the Republic of Bean.",
			"Establish a comprehensive evaluation process for previous educational experiences.",
			"Develop tailored programs that combine recognition with additional training.",
		}},
	}
}

// Names returns the area names in order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, a := range c {
		names[i] = a.Name
	}
	return names
}

// Index returns the position of the named area, or -1.
func (c Catalog) Index(name string) int {
	for i, a := range c {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the catalog contains the named area.
func (c Catalog) Has(name string) bool {
	return c.Index(name) >= 0
}

// MarshalJSON encodes the catalog as {"Area": {"Option 1": "...", ...}, ...}.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, area := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(area.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(":{")
		for n := MinOption; n <= MaxOption; n++ {
			if n > MinOption {
				buf.WriteByte(',')
			}
			text, err := json.Marshal(area.Option(n))
			if err != nil {
				return nil, err
			}
			buf.WriteString(`"` + OptionKey(n) + `":`)
			buf.Write(text)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form, preserving key order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	var out Catalog
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("catalog: read area name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: unexpected token %v", tok)
		}

		var options map[string]string
		if err := dec.Decode(&options); err != nil {
			return fmt.Errorf("catalog: decode options for %q: %w", name, err)
		}

		area := PolicyArea{Name: name}
		for key, text := range options {
			n, err := strconv.Atoi(strings.TrimPrefix(key, "Option "))
			if err != nil || !ValidOption(n) {
				continue
			}
			area.Options[n-1] = text
		}
		out = append(out, area)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*c = out
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("catalog: expected %q, got %v", want, tok)
	}
	return nil
}
