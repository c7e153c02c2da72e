package core

// settings.go persists reader options as XML attribute blocks so they can be
// stored alongside a project:
//
//	<asciiFilter commentCharacter="#" separatingCharacter="auto" autoMode="1"
//	    header="1" vectorNames="" emptyLines="1" simplifyWhitespaces="1"
//	    transposed="0" startRow="0" endRow="-1" startColumn="0" endColumn="-1"/>
//
// Booleans are written as 0/1 and unbounded ends as -1. The merge mode is
// chosen per import and is not persisted.

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	asciiElement = "asciiFilter"
	imageElement = "imageFilter"
)

// ErrSettingsNotFound is returned when the document has no settings element.
var ErrSettingsNotFound = errors.New("settings element not found")

// SaveSettings writes opts as an <asciiFilter> element.
func SaveSettings(w io.Writer, opts Options) error {
	start := xml.StartElement{
		Name: xml.Name{Local: asciiElement},
		Attr: []xml.Attr{
			attr("commentCharacter", opts.CommentPrefix),
			attr("separatingCharacter", opts.Delimiter),
			attr("autoMode", boolAttr(opts.AutoMode)),
			attr("header", boolAttr(opts.Header)),
			attr("vectorNames", opts.ColumnNames),
			attr("emptyLines", boolAttr(opts.SkipEmptyTokens)),
			attr("simplifyWhitespaces", boolAttr(opts.SimplifyWhitespace)),
			attr("transposed", boolAttr(opts.Transposed)),
			attr("startRow", strconv.Itoa(opts.StartRow)),
			attr("endRow", strconv.Itoa(opts.EndRow.Int())),
			attr("startColumn", strconv.Itoa(opts.StartColumn)),
			attr("endColumn", strconv.Itoa(opts.EndColumn.Int())),
		},
	}
	return writeElement(w, start)
}

// LoadSettings reads the first <asciiFilter> element of the document.
//
// Missing or empty attributes fall back to the value from DefaultOptions
// and are reported as warnings, as are unparsable integers. Once the element is found the
// load always succeeds.
func LoadSettings(r io.Reader) (Options, []SettingsWarning, error) {
	start, err := findElement(r, asciiElement)
	if err != nil {
		return Options{}, nil, err
	}

	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = a.Value
	}

	l := attrLoader{attrs: attrs}
	opts := DefaultOptions()
	l.str("commentCharacter", &opts.CommentPrefix)
	l.str("separatingCharacter", &opts.Delimiter)
	l.boolean("autoMode", &opts.AutoMode)
	l.boolean("header", &opts.Header)
	l.str("vectorNames", &opts.ColumnNames)
	l.boolean("emptyLines", &opts.SkipEmptyTokens)
	l.boolean("simplifyWhitespaces", &opts.SimplifyWhitespace)
	l.boolean("transposed", &opts.Transposed)
	l.integer("startRow", &opts.StartRow)
	l.bound("endRow", &opts.EndRow)
	l.integer("startColumn", &opts.StartColumn)
	l.bound("endColumn", &opts.EndColumn)

	return opts, l.warnings, nil
}

// SaveImageSettings writes the attribute-less <imageFilter> element.
func SaveImageSettings(w io.Writer) error {
	return writeElement(w, xml.StartElement{Name: xml.Name{Local: imageElement}})
}

// LoadImageSettings checks that the document carries an <imageFilter> element.
// The image reader has no persisted attributes.
func LoadImageSettings(r io.Reader) error {
	_, err := findElement(r, imageElement)
	return err
}

func writeElement(w io.Writer, start xml.StartElement) error {
	enc := xml.NewEncoder(w)
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return enc.Flush()
}

func findElement(r io.Reader, name string) (xml.StartElement, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, fmt.Errorf("%w: no <%s> element", ErrSettingsNotFound, name)
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("read settings: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == name {
			return se, nil
		}
	}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func boolAttr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

type attrLoader struct {
	attrs    map[string]string
	warnings []SettingsWarning
}

func (l *attrLoader) missing(name string) {
	l.warnings = append(l.warnings, SettingsWarning{
		Attribute: name,
		Message:   fmt.Sprintf("Attribute '%s' missing or empty, default value is used", name),
	})
}

func (l *attrLoader) lookup(name string) (string, bool) {
	v, ok := l.attrs[name]
	if !ok || v == "" {
		l.missing(name)
		return "", false
	}
	return v, true
}

func (l *attrLoader) str(name string, dst *string) {
	if v, ok := l.lookup(name); ok {
		*dst = v
	}
}

func (l *attrLoader) integer(name string, dst *int) {
	v, ok := l.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.missing(name)
		return
	}
	*dst = n
}

// boolean accepts 0/1 and the strconv forms. Any other non-empty value
// reads as false, matching how older documents were parsed.
func (l *attrLoader) boolean(name string, dst *bool) {
	v, ok := l.lookup(name)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
		return
	}
	n, _ := strconv.Atoi(v)
	*dst = n != 0
}

func (l *attrLoader) bound(name string, dst *Bound) {
	n := dst.Int()
	l.integer(name, &n)
	*dst = BoundFromInt(n)
}

// SeparatorChoices lists the predefined separators offered to users.
func SeparatorChoices() []string {
	return []string{"auto", "TAB", "SPACE", ",", ";", ":", ",TAB", ";TAB", ":TAB", ",SPACE", ";SPACE", ":SPACE"}
}

// CommentChoices lists the predefined comment prefixes offered to users.
func CommentChoices() []string {
	return []string{"#", "!", "//", "+", "c", ":", ";"}
}
