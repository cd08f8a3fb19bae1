package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
)

// UnnamedForm is reported for forms without a name attribute.
const UnnamedForm = "[no name specified]"

// Parser extracts forms and hyperlinks from HTML content.
// Malformed markup is repaired by the HTML5 parsing algorithm, so Parse only
// fails when reading the input fails.
type Parser struct{}

// ParseResult contains everything extracted from one HTML page.
type ParseResult struct {
	// Title is the page title from <title> tag.
	Title string

	// Forms contains every <form> element in document order.
	Forms []Form

	// Links contains every <a> element in document order.
	// Hrefs are returned verbatim; resolving them is the engine's job.
	Links []Link
}

// Form contains information about an HTML form.
type Form struct {
	// Name is the name attribute, or nil when the attribute is absent.
	Name *string

	// Action is the raw action attribute.
	Action string

	// Method is the HTTP method (GET, POST).
	Method string

	// Fields contains form field names and types.
	Fields []FormField
}

// DisplayName returns the form name, or UnnamedForm when it has none.
// A present but empty name is returned as the empty string.
func (f Form) DisplayName() string {
	if f.Name == nil {
		return UnnamedForm
	}
	return *f.Name
}

// FormField represents a form input field.
type FormField struct {
	// Name is the field name attribute.
	Name string

	// Type is the input type (text, password, hidden, etc.).
	Type string
}

// Link is an <a> element.
type Link struct {
	// Href is the href attribute, or nil when the attribute is absent.
	Href *string

	// Text is the anchor text with surrounding whitespace removed.
	Text string
}

// NewParser creates a new HTML parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses HTML content and extracts forms and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Forms: make([]Form, 0),
		Links: make([]Link, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return result, nil
}

// ParseForms returns the forms of an HTML document in document order.
func (p *Parser) ParseForms(content io.Reader) ([]Form, error) {
	result, err := p.Parse(content)
	if err != nil {
		return nil, err
	}
	return result.Forms, nil
}

// ParseLinks returns the <a> elements of an HTML document in document order.
func (p *Parser) ParseLinks(content io.Reader) ([]Link, error) {
	result, err := p.Parse(content)
	if err != nil {
		return nil, err
	}
	return result.Links, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		link := Link{Text: strings.TrimSpace(textContent(n))}
		if href, ok := lookupAttr(n, "href"); ok {
			link.Href = &href
		}
		result.Links = append(result.Links, link)

	case "form":
		action, _ := lookupAttr(n, "action")
		method, _ := lookupAttr(n, "method")
		form := Form{
			Action: action,
			Method: strings.ToUpper(method),
			Fields: make([]FormField, 0),
		}
		if name, ok := lookupAttr(n, "name"); ok {
			form.Name = &name
		}
		if form.Method == "" {
			form.Method = "GET"
		}
		p.extractFormFields(n, &form)
		result.Forms = append(result.Forms, form)
	}
}

// extractFormFields recursively extracts form fields from a form element.
func (p *Parser) extractFormFields(n *html.Node, form *Form) {
	if n.Type == html.ElementNode && (n.Data == htmlElementInput || n.Data == htmlElementSelect || n.Data == htmlElementTextarea) {
		name, _ := lookupAttr(n, "name")
		fieldType, _ := lookupAttr(n, "type")
		if fieldType == "" {
			switch n.Data {
			case htmlElementTextarea:
				fieldType = htmlElementTextarea
			case htmlElementSelect:
				fieldType = htmlElementSelect
			default:
				fieldType = "text"
			}
		}
		if name != "" {
			form.Fields = append(form.Fields, FormField{Name: name, Type: fieldType})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.extractFormFields(c, form)
	}
}

// lookupAttr retrieves an attribute value from an HTML node and reports
// whether the attribute is present at all.
func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
