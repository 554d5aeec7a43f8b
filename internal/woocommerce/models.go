package woocommerce

import (
	"strings"

	"alugserv/internal/domain"
)

type wcImage struct {
	Src string `json:"src"`
}

type wcTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wcAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type wcProduct struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Description      string        `json:"description"`
	ShortDescription string        `json:"short_description"`
	Price            string        `json:"price"`
	RegularPrice     string        `json:"regular_price"`
	SalePrice        string        `json:"sale_price"`
	SKU              string        `json:"sku"`
	StockStatus      string        `json:"stock_status"`
	Permalink        string        `json:"permalink"`
	Images           []wcImage     `json:"images"`
	Categories       []wcTerm      `json:"categories"`
	Attributes       []wcAttribute `json:"attributes"`
}

type wcCategory struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Image       *wcImage `json:"image"`
	Parent      int64    `json:"parent"`
	Count       int      `json:"count"`
}

type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"short_description"`
	Price            string       `json:"price"`
	RegularPrice     string       `json:"regular_price"`
	SalePrice        string       `json:"sale_price"`
	Image            *string      `json:"image"`
	Gallery          []string     `json:"gallery"`
	Category         *Term        `json:"category"`
	Categories       []Term       `json:"categories"`
	Specs            domain.Specs `json:"specs"`
	SKU              string       `json:"sku"`
	StockStatus      string       `json:"stock_status"`
	InStock          bool         `json:"in_stock"`
	Permalink        string       `json:"permalink"`
}

type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Parent      int64   `json:"parent"`
	Count       int     `json:"count"`
	Link        string  `json:"link"`
}

// Node is a category with its children, as rendered by the category tree.
type Node struct {
	Category
	Children []*Node `json:"children"`
}

func formatProduct(p wcProduct) Product {
	out := Product{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		Gallery:          make([]string, 0, len(p.Images)),
		Categories:       make([]Term, 0, len(p.Categories)),
		Specs:            domain.Specs{},
		SKU:              p.SKU,
		StockStatus:      p.StockStatus,
		InStock:          p.StockStatus == "instock",
		Permalink:        p.Permalink,
	}
	for _, img := range p.Images {
		out.Gallery = append(out.Gallery, img.Src)
	}
	if len(out.Gallery) > 0 {
		out.Image = &out.Gallery[0]
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, Term(c))
	}
	if len(out.Categories) > 0 {
		first := out.Categories[0]
		out.Category = &first
	}
	for _, a := range p.Attributes {
		out.Specs = append(out.Specs, domain.Spec{Name: a.Name, Value: strings.Join(a.Options, ", ")})
	}
	return out
}

func formatCategory(c wcCategory) Category {
	out := Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Parent:      c.Parent,
		Count:       c.Count,
		Link:        "categoria.html?slug=" + c.Slug,
	}
	if c.Image != nil && c.Image.Src != "" {
		src := c.Image.Src
		out.Image = &src
	}
	return out
}

// Tree nests categories under their parents. Roots have Parent 0; children
// whose parent is not in cats are dropped.
func Tree(cats []Category) []*Node {
	nodes := make(map[int64]*Node, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &Node{Category: c, Children: []*Node{}}
	}
	roots := []*Node{}
	for _, c := range cats {
		n := nodes[c.ID]
		if c.Parent == 0 {
			roots = append(roots, n)
			continue
		}
		if p, ok := nodes[c.Parent]; ok {
			p.Children = append(p.Children, n)
		}
	}
	return roots
}
