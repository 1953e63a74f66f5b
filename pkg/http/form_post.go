package http

import (
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"
)

// ParseFormPostDocument extracts the hidden input fields from the
// auto-submitting HTML document a provider renders for the form_post
// response mode. Inputs outside a form element are ignored.
func ParseFormPostDocument(r io.Reader) (url.Values, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse form post document: %w", err)
	}
	values := url.Values{}
	form := findNode(doc, "form")
	if form == nil {
		return nil, fmt.Errorf("form post document contains no form")
	}
	collectInputs(form, values)
	return values, nil
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectInputs(n *html.Node, values url.Values) {
	if n.Type == html.ElementNode && n.Data == "input" {
		var name, value string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "name":
				name = attr.Val
			case "value":
				value = attr.Val
			}
		}
		if name != "" {
			values.Add(name, value)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInputs(c, values)
	}
}
