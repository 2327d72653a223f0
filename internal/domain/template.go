package domain

import (
	"strconv"
	"strings"
)

// Placeholder tokens recognized by the template engine.
const (
	TokenProductTitle  = "{product_title}"
	TokenShopName      = "{shop_name}"
	TokenImagePosition = "{image_position}"
)

// TemplateContext carries the resolved entity fields a template can reference.
// ImagePosition is the 1-based index of the image within its parent product's
// image collection, in stored order; zero means "not an image context" and
// leaves {image_position} untouched.
type TemplateContext struct {
	ProductTitle  string
	ShopName      string
	ImagePosition int
}

// ExpandTemplate replaces every occurrence of each recognized placeholder in
// pattern with the corresponding context field. Unrecognized tokens are left
// verbatim; there is no escaping. The expansion is deterministic: the same
// (pattern, context) pair always yields the same output.
func ExpandTemplate(pattern string, tc TemplateContext) string {
	out := strings.ReplaceAll(pattern, TokenProductTitle, tc.ProductTitle)
	out = strings.ReplaceAll(out, TokenShopName, tc.ShopName)
	if tc.ImagePosition > 0 {
		out = strings.ReplaceAll(out, TokenImagePosition, strconv.Itoa(tc.ImagePosition))
	}
	return out
}

// ExpandOptional expands an optional template. A nil template yields nil,
// which is distinct from an empty string: downstream payloads encode the
// former as JSON null.
func ExpandOptional(pattern *string, tc TemplateContext) *string {
	if pattern == nil {
		return nil
	}
	expanded := ExpandTemplate(*pattern, tc)
	return &expanded
}
