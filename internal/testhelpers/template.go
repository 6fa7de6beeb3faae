package testhelpers

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

// TemplateRenderer renders templ components and makes assertions on the HTML.
// Every assertion returns the renderer so checks can be chained.
type TemplateRenderer struct {
	t    *testing.T
	html string
}

// NewTemplateRenderer creates a new template renderer for testing
func NewTemplateRenderer(t *testing.T) *TemplateRenderer {
	return &TemplateRenderer{t: t}
}

// Render renders a component and stores the HTML
func (r *TemplateRenderer) Render(component templ.Component) *TemplateRenderer {
	return r.render(context.Background(), component)
}

// RenderWithChildren renders a layout component around children
func (r *TemplateRenderer) RenderWithChildren(layout, children templ.Component) *TemplateRenderer {
	return r.render(templ.WithChildren(context.Background(), children), layout)
}

func (r *TemplateRenderer) render(ctx context.Context, component templ.Component) *TemplateRenderer {
	r.t.Helper()
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		r.t.Fatalf("Failed to render template: %v", err)
	}
	r.html = buf.String()
	return r
}

// HTML returns the rendered HTML
func (r *TemplateRenderer) HTML() string {
	return r.html
}

// AssertContains checks if the rendered HTML contains a substring
func (r *TemplateRenderer) AssertContains(substring string) *TemplateRenderer {
	r.t.Helper()
	if !strings.Contains(r.html, substring) {
		r.t.Errorf("Expected HTML to contain %q, but it didn't.\nHTML: %s", substring, r.html)
	}
	return r
}

// AssertNotContains checks if the rendered HTML does not contain a substring
func (r *TemplateRenderer) AssertNotContains(substring string) *TemplateRenderer {
	r.t.Helper()
	if strings.Contains(r.html, substring) {
		r.t.Errorf("Expected HTML not to contain %q, but it did.\nHTML: %s", substring, r.html)
	}
	return r
}

// AssertMatches checks if the rendered HTML matches a regex pattern
func (r *TemplateRenderer) AssertMatches(pattern string) *TemplateRenderer {
	r.t.Helper()
	matched, err := regexp.MatchString(pattern, r.html)
	if err != nil {
		r.t.Fatalf("Invalid regex pattern %q: %v", pattern, err)
	}
	if !matched {
		r.t.Errorf("Expected HTML to match pattern %q, but it didn't.\nHTML: %s", pattern, r.html)
	}
	return r
}

// AssertHasDatastarAttribute checks for a data-* attribute. value is given
// unescaped, the way it would be written in a template.
func (r *TemplateRenderer) AssertHasDatastarAttribute(attribute, value string) *TemplateRenderer {
	r.t.Helper()
	want := `data-` + attribute + `="` + templ.EscapeString(value) + `"`
	if !strings.Contains(r.html, want) {
		r.t.Errorf("Expected to find attribute %s, but didn't find it.\nHTML: %s", want, r.html)
	}
	return r
}

// AssertHasElement checks if the HTML contains a specific element
func (r *TemplateRenderer) AssertHasElement(tagName string) *TemplateRenderer {
	r.t.Helper()
	if r.CountElements(tagName) == 0 {
		r.t.Errorf("Expected to find element <%s>, but didn't find it.\nHTML: %s", tagName, r.html)
	}
	return r
}

// AssertHasElementWithID checks if the HTML contains an element with a specific ID
func (r *TemplateRenderer) AssertHasElementWithID(id string) *TemplateRenderer {
	r.t.Helper()
	if !strings.Contains(r.html, `id="`+id+`"`) {
		r.t.Errorf("Expected to find element with id=%q, but didn't find it.\nHTML: %s", id, r.html)
	}
	return r
}

// AssertHasClass checks if any element has a specific CSS class
func (r *TemplateRenderer) AssertHasClass(className string) *TemplateRenderer {
	r.t.Helper()
	pattern := `class="([^"]*\s)?` + regexp.QuoteMeta(className) + `(\s[^"]*)?"`
	if matched, _ := regexp.MatchString(pattern, r.html); !matched {
		r.t.Errorf("Expected to find element with class %q, but didn't find it.\nHTML: %s", className, r.html)
	}
	return r
}

// AssertInputValue checks if an input with the given id has a specific value
func (r *TemplateRenderer) AssertInputValue(id, value string) *TemplateRenderer {
	r.t.Helper()
	pattern := `<input[^>]*id="` + regexp.QuoteMeta(id) + `"[^>]*value="` + regexp.QuoteMeta(templ.EscapeString(value)) + `"`
	if matched, _ := regexp.MatchString(pattern, r.html); !matched {
		r.t.Errorf("Expected to find input id=%q with value=%q, but didn't find it.\nHTML: %s", id, value, r.html)
	}
	return r
}

// CountElements counts how many times an element appears
func (r *TemplateRenderer) CountElements(tagName string) int {
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tagName) + `[\s>]`)
	return len(re.FindAllString(r.html, -1))
}

// AssertElementCount checks if an element appears a specific number of times
func (r *TemplateRenderer) AssertElementCount(tagName string, expectedCount int) *TemplateRenderer {
	r.t.Helper()
	if count := r.CountElements(tagName); count != expectedCount {
		r.t.Errorf("Expected %d <%s> elements, but found %d.\nHTML: %s", expectedCount, tagName, count, r.html)
	}
	return r
}

// AssertNotEmpty checks that the rendered HTML is not empty
func (r *TemplateRenderer) AssertNotEmpty() *TemplateRenderer {
	r.t.Helper()
	if strings.TrimSpace(r.html) == "" {
		r.t.Error("Expected non-empty HTML, but got empty content")
	}
	return r
}

var (
	openTag  = regexp.MustCompile(`<(\w+)(?:\s[^>]*)?>`)
	closeTag = regexp.MustCompile(`</(\w+)>`)
)

// voidElements never have a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// AssertValid checks that every non-void element is closed. It is a tag
// count, not a parser.
func (r *TemplateRenderer) AssertValid() *TemplateRenderer {
	r.t.Helper()
	counts := make(map[string]int)
	for _, m := range openTag.FindAllStringSubmatch(r.html, -1) {
		if !voidElements[m[1]] {
			counts[m[1]]++
		}
	}
	for _, m := range closeTag.FindAllStringSubmatch(r.html, -1) {
		counts[m[1]]--
	}
	for tag, count := range counts {
		if count != 0 {
			r.t.Errorf("Mismatched tags: <%s> opened %d more times than closed", tag, count)
		}
	}
	return r
}
