package handlers

import (
	"bytes"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"alugserv/internal/apperr"
	"alugserv/internal/domain"
	"alugserv/internal/services"
)

// payload reads request fields from a JSON body, a urlencoded form or a
// multipart form. Absent fields come back unset so updates stay partial.
type payload struct {
	c    *fiber.Ctx
	json *gjson.Result
	form *multipart.Form
}

func readPayload(c *fiber.Ctx) (*payload, error) {
	p := &payload{c: c}
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	body := bytes.TrimSpace(c.Body())

	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, apperr.Validation("invalid multipart body")
		}
		p.form = form
	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
	case strings.Contains(ct, "json") || (ct == "" && len(body) > 0 && body[0] == '{'):
		if len(body) == 0 {
			body = []byte("{}")
		}
		if !gjson.ValidBytes(body) {
			return nil, apperr.Validation("invalid JSON body")
		}
		r := gjson.ParseBytes(body)
		if !r.IsObject() {
			return nil, apperr.Validation("JSON body must be an object")
		}
		p.json = &r
	}
	return p, nil
}

func (p *payload) get(key string) (gjson.Result, bool) {
	if p.json == nil {
		return gjson.Result{}, false
	}
	r := p.json.Get(key)
	return r, r.Exists()
}

func (p *payload) formValue(key string) (string, bool) {
	if p.form != nil {
		if v, ok := p.form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
		return "", false
	}
	args := p.c.Request().PostArgs()
	if args.Has(key) {
		return string(args.Peek(key)), true
	}
	return "", false
}

func (p *payload) Has(key string) bool {
	if p.json != nil {
		_, ok := p.get(key)
		return ok
	}
	_, ok := p.formValue(key)
	return ok
}

// Raw returns the field as JSON text for JSON bodies and as the plain value
// for forms.
func (p *payload) Raw(key string) (string, bool) {
	if p.json != nil {
		r, ok := p.get(key)
		return r.Raw, ok
	}
	return p.formValue(key)
}

func (p *payload) scalar(key string) (string, bool) {
	if p.json != nil {
		r, ok := p.get(key)
		if !ok || r.Type == gjson.Null {
			return "", ok
		}
		return r.String(), true
	}
	return p.formValue(key)
}

func (p *payload) String(key string) services.Opt[string] {
	v, ok := p.scalar(key)
	if !ok {
		return services.Opt[string]{}
	}
	return services.Some(strings.TrimSpace(v))
}

// NullableString maps "" and null to nil.
func (p *payload) NullableString(key string) services.Opt[*string] {
	v, ok := p.scalar(key)
	if !ok {
		return services.Opt[*string]{}
	}
	if v = strings.TrimSpace(v); v == "" {
		return services.Some[*string](nil)
	}
	return services.Some(&v)
}

func (p *payload) Int(key string) (services.Opt[int64], error) {
	v, ok := p.scalar(key)
	if !ok {
		return services.Opt[int64]{}, nil
	}
	if v = strings.TrimSpace(v); v == "" {
		return services.Some[int64](0), nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return services.Opt[int64]{}, apperr.Validation("%s must be an integer", key)
	}
	return services.Some(n), nil
}

func (p *payload) SmallInt(key string) (services.Opt[int], error) {
	n, err := p.Int(key)
	if err != nil || !n.Set {
		return services.Opt[int]{}, err
	}
	return services.Some(int(n.V)), nil
}

// Float maps "" and null to nil, like an unset price.
func (p *payload) Float(key string) (services.Opt[*float64], error) {
	v, ok := p.scalar(key)
	if !ok {
		return services.Opt[*float64]{}, nil
	}
	if v = strings.TrimSpace(v); v == "" {
		return services.Some[*float64](nil), nil
	}
	f, err := cast.ToFloat64E(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return services.Opt[*float64]{}, apperr.Validation("%s must be a number", key)
	}
	return services.Some(&f), nil
}

func (p *payload) Bool(key string) (services.Opt[bool], error) {
	v, ok := p.scalar(key)
	if !ok {
		return services.Opt[bool]{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off", "no":
		return services.Some(false), nil
	case "on", "yes":
		return services.Some(true), nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return services.Opt[bool]{}, apperr.Validation("%s must be a boolean", key)
	}
	return services.Some(b), nil
}

func (p *payload) Gallery(key string) (services.Opt[domain.Gallery], error) {
	raw, ok := p.Raw(key)
	if !ok {
		return services.Opt[domain.Gallery]{}, nil
	}
	g, err := domain.ParseGallery(raw)
	if err != nil {
		return services.Opt[domain.Gallery]{}, apperr.Validation("%s: %v", key, err)
	}
	return services.Some(g), nil
}

func (p *payload) Specs(key string) (services.Opt[domain.Specs], error) {
	raw, ok := p.Raw(key)
	if !ok {
		return services.Opt[domain.Specs]{}, nil
	}
	s, err := domain.ParseSpecs(raw)
	if err != nil {
		return services.Opt[domain.Specs]{}, apperr.Validation("%s: %v", key, err)
	}
	return services.Some(s), nil
}

// File returns the uploaded file for key, or nil when there is none.
func (p *payload) File(key string) *multipart.FileHeader {
	if p.form == nil {
		return nil
	}
	if fs := p.form.File[key]; len(fs) > 0 {
		return fs[0]
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
