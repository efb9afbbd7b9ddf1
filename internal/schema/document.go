// Package schema decodes the API schema document and builds the models and the
// view index from it.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document is the OpenAPI 2 style schema served by the API.
type Document struct {
	Swagger     string                 `json:"swagger,omitempty"`
	Info        Info                   `json:"info"`
	Host        string                 `json:"host,omitempty"`
	BasePath    string                 `json:"basePath,omitempty"`
	Schemes     []string               `json:"schemes,omitempty"`
	Definitions map[string]*Definition `json:"definitions"`
	Paths       map[string]*PathItem   `json:"paths"`
}

// Info carries the API version and the session settings.
type Info struct {
	Title    string            `json:"title"`
	Version  string            `json:"version"`
	Settings Settings          `json:"x-settings"`
	UserID   json.Number       `json:"x-user-id,omitempty"`
	Versions map[string]string `json:"x-versions,omitempty"`
}

// Settings are the server side settings the client must follow.
type Settings struct {
	TimeZone string `json:"time_zone,omitempty"`
	Language string `json:"language_code,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// Location returns the session time zone, UTC when unknown.
func (s Settings) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BaseURL returns the scheme, host and base path of the API, empty when the
// document does not describe a host.
func (d *Document) BaseURL() string {
	if d.Host == "" {
		return ""
	}
	scheme := "https"
	if len(d.Schemes) > 0 {
		scheme = d.Schemes[0]
	}
	return scheme + "://" + d.Host + strings.TrimRight(d.BasePath, "/")
}

// Definition is one entity shape. Property order follows the document.
type Definition struct {
	Type       string               `json:"type,omitempty"`
	Required   []string             `json:"required,omitempty"`
	Properties map[string]*Property `json:"properties,omitempty"`

	order []string
}

// PropertyNames returns the property names in document order.
func (d *Definition) PropertyNames() []string {
	if len(d.order) == len(d.Properties) {
		return d.order
	}
	// built in code rather than decoded
	names := make([]string, 0, len(d.Properties))
	for name := range d.Properties {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func (d *Definition) UnmarshalJSON(data []byte) error {
	type plain Definition
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	var raw struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	order, err := objectKeys(raw.Properties)
	if err != nil {
		return fmt.Errorf("error reading property order: %w", err)
	}
	*d = Definition(out)
	d.order = order
	return nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Property is a field description inside a definition.
type Property struct {
	Ref                  string               `json:"$ref,omitempty"`
	Type                 string               `json:"type,omitempty"`
	Format               string               `json:"format,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	ReadOnly             bool                 `json:"readOnly,omitempty"`
	Nullable             bool                 `json:"x-nullable,omitempty"`
	MinLength            *int                 `json:"minLength,omitempty"`
	MaxLength            *int                 `json:"maxLength,omitempty"`
	Minimum              *float64             `json:"minimum,omitempty"`
	Maximum              *float64             `json:"maximum,omitempty"`
	Default              any                  `json:"default,omitempty"`
	Enum                 []any                `json:"enum,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	AdditionalProperties *Additional          `json:"additionalProperties,omitempty"`
}

// Additional is the additionalProperties block. A boolean value decodes to nil fields.
type Additional struct {
	Model       *Property            `json:"model,omitempty"`
	ValueField  string               `json:"value_field,omitempty"`
	ViewField   string               `json:"view_field,omitempty"`
	ListPaths   []string             `json:"list_paths,omitempty"`
	UsePrefetch *bool                `json:"usePrefetch,omitempty"`
	Field       StringList           `json:"field,omitempty"`
	Types       map[string]string    `json:"types,omitempty"`
	Choices     map[string][]any     `json:"choices,omitempty"`
	Form        map[string]*Property `json:"form,omitempty"`
}

func (a *Additional) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte("false")) {
		*a = Additional{}
		return nil
	}
	type plain Additional
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*a = Additional(out)
	return nil
}

// StringList decodes from either a string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*s = many
	return nil
}

// PathItem holds the operations of one resource path.
type PathItem struct {
	Get        *Operation        `json:"get,omitempty"`
	Post       *Operation        `json:"post,omitempty"`
	Put        *Operation        `json:"put,omitempty"`
	Patch      *Operation        `json:"patch,omitempty"`
	Delete     *Operation        `json:"delete,omitempty"`
	Parameters []json.RawMessage `json:"parameters,omitempty"`
}

// Methods returns the HTTP methods declared for the path.
func (p *PathItem) Methods() []string {
	var res []string
	for _, op := range []struct {
		name string
		op   *Operation
	}{{"get", p.Get}, {"post", p.Post}, {"put", p.Put}, {"patch", p.Patch}, {"delete", p.Delete}} {
		if op.op != nil {
			res = append(res, op.name)
		}
	}
	return res
}

// Operation is one method of a path.
type Operation struct {
	OperationID string               `json:"operationId,omitempty"`
	Description string               `json:"description,omitempty"`
	Responses   map[string]*Response `json:"responses,omitempty"`
}

// Response is one declared response of an operation.
type Response struct {
	Description string    `json:"description,omitempty"`
	Schema      *Property `json:"schema,omitempty"`
}

// RefName returns the definition name of a #/definitions/Name reference.
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
