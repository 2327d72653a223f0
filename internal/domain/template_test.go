package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		ctx      TemplateContext
		expected string
	}{
		{
			name:     "product title token",
			pattern:  "{product_title} | Buy Online",
			ctx:      TemplateContext{ProductTitle: "Blue Mug"},
			expected: "Blue Mug | Buy Online",
		},
		{
			name:     "shop name token",
			pattern:  "Shop at {shop_name}",
			ctx:      TemplateContext{ShopName: "Acme Store"},
			expected: "Shop at Acme Store",
		},
		{
			name:     "all tokens together",
			pattern:  "{product_title} image {image_position} from {shop_name}",
			ctx:      TemplateContext{ProductTitle: "Blue Mug", ShopName: "Acme Store", ImagePosition: 3},
			expected: "Blue Mug image 3 from Acme Store",
		},
		{
			name:     "repeated token expands everywhere",
			pattern:  "{product_title} {product_title}",
			ctx:      TemplateContext{ProductTitle: "Mug"},
			expected: "Mug Mug",
		},
		{
			name:     "unrecognized token left verbatim",
			pattern:  "{product_title} {vendor_name}",
			ctx:      TemplateContext{ProductTitle: "Mug"},
			expected: "Mug {vendor_name}",
		},
		{
			name:     "image position untouched outside image context",
			pattern:  "{product_title} image {image_position}",
			ctx:      TemplateContext{ProductTitle: "Mug"},
			expected: "Mug image {image_position}",
		},
		{
			name:     "empty context field replaces with empty string",
			pattern:  "{product_title}!",
			ctx:      TemplateContext{},
			expected: "!",
		},
		{
			name:     "no tokens passes through",
			pattern:  "Static title",
			ctx:      TemplateContext{ProductTitle: "Mug"},
			expected: "Static title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTemplate(tt.pattern, tt.ctx))
		})
	}
}

func TestExpandOptional(t *testing.T) {
	ctx := TemplateContext{ProductTitle: "Mug", ShopName: "Acme"}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ExpandOptional(nil, ctx))
	})

	t.Run("empty string stays empty, not nil", func(t *testing.T) {
		empty := ""
		out := ExpandOptional(&empty, ctx)
		if assert.NotNil(t, out) {
			assert.Equal(t, "", *out)
		}
	})

	t.Run("expands tokens", func(t *testing.T) {
		pattern := "{product_title} at {shop_name}"
		out := ExpandOptional(&pattern, ctx)
		if assert.NotNil(t, out) {
			assert.Equal(t, "Mug at Acme", *out)
		}
	})
}
