// Package view projects the content document onto the public page.
package view

import (
	"html"
	"html/template"

	"github.com/lovenotes/anniversary/internal/content"
)

// Field ids with a structural projection.
const (
	FieldHeroName1    = "hero-name-1"
	FieldHeroName2    = "hero-name-2"
	FieldHeroSubLine1 = "hero-sub-line-1"
	FieldHeroSubLine2 = "hero-sub-line-2"
	FieldStartDate    = "start-date"
)

// ElapsedAnchor receives the start date of the elapsed-time counter.
type ElapsedAnchor interface {
	SetElapsedAnchor(value string)
}

// Projection is how one field appears on the page. Image fields carry Src,
// every other kind carries ready-to-insert HTML.
type Projection struct {
	Kind content.Kind
	Src  string
	HTML template.HTML
}

// Page is the fully resolved public page.
type Page struct {
	Fields       map[string]Projection
	HeroTitle    template.HTML
	HeroSubtitle template.HTML
	StartDate    string
}

// HTML returns the markup of a text-like field.
func (p Page) HTML(id string) template.HTML { return p.Fields[id].HTML }

// Src returns the image URL of an image field.
func (p Page) Src(id string) string { return p.Fields[id].Src }

// Renderer turns a document into a Page. It never writes anywhere except the
// optional elapsed-time anchor.
type Renderer struct {
	Schema content.Schema
	Anchor ElapsedAnchor
}

func (r Renderer) Render(doc content.Document) Page {
	page := Page{Fields: make(map[string]Projection)}
	for _, f := range r.Schema.Fields() {
		page.Fields[f.ID] = project(f, doc.Value(f))
	}

	page.HeroTitle = page.HTML(FieldHeroName1) + " &amp; " + page.HTML(FieldHeroName2) + "<br><span>💖</span>"
	page.HeroSubtitle = "<b>" + page.HTML(FieldHeroSubLine1) + "</b><br>" + page.HTML(FieldHeroSubLine2)

	if f, ok := r.Schema.Field(FieldStartDate); ok {
		page.StartDate = doc.Value(f)
		if r.Anchor != nil {
			r.Anchor.SetElapsedAnchor(page.StartDate)
		}
	}
	return page
}

func project(f content.FieldSpec, value string) Projection {
	p := Projection{Kind: f.Kind}
	switch f.Kind {
	case content.KindImage:
		p.Src = value
		return p
	case content.KindMultilineText:
		if !f.Raw {
			value = html.EscapeString(value)
		}
		value = content.ToDisplay(value)
	default:
		if !f.Raw {
			value = html.EscapeString(value)
		}
	}
	p.HTML = template.HTML(value)
	return p
}
