package web

// forms.go turns request input into validated core values. JSON bodies and
// multipart/query forms share the same field names so a client can send the
// options either way.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/colimport/internal/core"
)

// errInvalidRequest marks input errors the client can fix.
var errInvalidRequest = errors.New("invalid request")

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// newValidator returns a validator that reports fields by their json or
// form name and knows the "identifier" tag for SQL table names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError flattens validator output into one client-facing error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", errInvalidRequest, strings.Join(msgs, "; "))
}

func (s *Server) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidRequest)
		}
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return s.check(dst)
}

// optionsView is the wire form of core.Options. Unbounded ends are -1.
type optionsView struct {
	Mode               string `json:"mode" validate:"omitempty,oneof=append prepend replace"`
	Delimiter          string `json:"delimiter" validate:"max=16"`
	Header             bool   `json:"header"`
	ColumnNames        string `json:"columnNames" validate:"max=8192"`
	SimplifyWhitespace bool   `json:"simplifyWhitespace"`
	SkipEmptyTokens    bool   `json:"skipEmptyTokens"`
	StartRow           int    `json:"startRow" validate:"min=0"`
	EndRow             int    `json:"endRow" validate:"min=-1"`
	StartColumn        int    `json:"startColumn" validate:"min=0"`
	EndColumn          int    `json:"endColumn" validate:"min=-1"`
	CommentPrefix      string `json:"commentPrefix" validate:"max=8"`
	AutoMode           bool   `json:"autoMode"`
	Transposed         bool   `json:"transposed"`
}

func viewOf(o core.Options) optionsView {
	return optionsView{
		Mode:               o.Mode.String(),
		Delimiter:          o.Delimiter,
		Header:             o.Header,
		ColumnNames:        o.ColumnNames,
		SimplifyWhitespace: o.SimplifyWhitespace,
		SkipEmptyTokens:    o.SkipEmptyTokens,
		StartRow:           o.StartRow,
		EndRow:             o.EndRow.Int(),
		StartColumn:        o.StartColumn,
		EndColumn:          o.EndColumn.Int(),
		CommentPrefix:      o.CommentPrefix,
		AutoMode:           o.AutoMode,
		Transposed:         o.Transposed,
	}
}

func (v optionsView) options() (core.Options, error) {
	mode, err := core.ParseMergeMode(v.Mode)
	if err != nil {
		return core.Options{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return core.Options{
		Mode:               mode,
		Delimiter:          v.Delimiter,
		Header:             v.Header,
		ColumnNames:        v.ColumnNames,
		SimplifyWhitespace: v.SimplifyWhitespace,
		SkipEmptyTokens:    v.SkipEmptyTokens,
		StartRow:           v.StartRow,
		EndRow:             core.BoundFromInt(v.EndRow),
		StartColumn:        v.StartColumn,
		EndColumn:          core.BoundFromInt(v.EndColumn),
		CommentPrefix:      v.CommentPrefix,
		AutoMode:           v.AutoMode,
		Transposed:         v.Transposed,
	}, nil
}

// applyForm overrides the fields present in form. Absent fields keep
// their value, so a form only needs to carry what differs from the base.
func (v *optionsView) applyForm(form url.Values) error {
	strs := map[string]*string{
		"mode":          &v.Mode,
		"delimiter":     &v.Delimiter,
		"columnNames":   &v.ColumnNames,
		"commentPrefix": &v.CommentPrefix,
	}
	for key, dst := range strs {
		if form.Has(key) {
			*dst = form.Get(key)
		}
	}

	ints := map[string]*int{
		"startRow":    &v.StartRow,
		"endRow":      &v.EndRow,
		"startColumn": &v.StartColumn,
		"endColumn":   &v.EndColumn,
	}
	for key, dst := range ints {
		if !form.Has(key) {
			continue
		}
		raw := strings.TrimSpace(form.Get(key))
		if raw == "" || strings.EqualFold(raw, "end") {
			*dst = -1
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", errInvalidRequest, key)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"header":             &v.Header,
		"simplifyWhitespace": &v.SimplifyWhitespace,
		"skipEmptyTokens":    &v.SkipEmptyTokens,
		"autoMode":           &v.AutoMode,
		"transposed":         &v.Transposed,
	}
	for key, dst := range bools {
		if !form.Has(key) {
			continue
		}
		b, err := parseBool(form.Get(key))
		if err != nil {
			return fmt.Errorf("%w: %s must be a boolean", errInvalidRequest, key)
		}
		*dst = b
	}
	return nil
}

// parseBool accepts strconv forms plus the checkbox values "on" and "off".
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// importParams are the non-option fields of an import or preview form.
type importParams struct {
	Reader   string `form:"reader" validate:"omitempty,max=64"`
	Template string `form:"template" validate:"omitempty,uuid"`
	Rows     int    `form:"rows" validate:"min=0,max=1000"`
}

// importOptions resolves the reader and options of an import form: the
// server defaults, then the named template, then the form's own fields.
func (s *Server) importOptions(form url.Values) (importParams, core.Options, error) {
	p := importParams{
		Reader:   strings.TrimSpace(form.Get("reader")),
		Template: strings.TrimSpace(form.Get("template")),
	}
	if raw := form.Get("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, core.Options{}, fmt.Errorf("%w: rows must be an integer", errInvalidRequest)
		}
		p.Rows = n
	}
	if err := s.check(&p); err != nil {
		return p, core.Options{}, err
	}

	base := s.defaultOptions()
	if p.Template != "" {
		tpl, err := s.service.GetTemplate(p.Template)
		if err != nil {
			return p, core.Options{}, err
		}
		base = tpl.Options
		if p.Reader == "" {
			p.Reader = tpl.Reader
		}
	}

	view := viewOf(base)
	if err := view.applyForm(form); err != nil {
		return p, core.Options{}, err
	}
	if err := s.check(&view); err != nil {
		return p, core.Options{}, err
	}
	opts, err := view.options()
	return p, opts, err
}
