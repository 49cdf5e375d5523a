package export

import (
	"io"

	"github.com/beevik/etree"
	"github.com/sealevel-io/tidemark/internal/export/cdx"
)

// writeXML renders the document as CycloneDX XML. The element layout mirrors
// the JSON shape, with scope tags carried as attributes on the nested
// dependency references.
func writeXML(bom *cdx.BOM, w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("bom")
	root.CreateAttr("xmlns", cdx.XMLNamespace)
	if bom.SerialNumber != "" {
		root.CreateAttr("serialNumber", bom.SerialNumber)
	}
	root.CreateAttr("version", "1")

	if bom.Metadata != nil {
		metadata := root.CreateElement("metadata")
		if bom.Metadata.Timestamp != "" {
			metadata.CreateElement("timestamp").SetText(bom.Metadata.Timestamp)
		}
		if len(bom.Metadata.Tools) > 0 {
			tools := metadata.CreateElement("tools")
			for _, t := range bom.Metadata.Tools {
				tool := tools.CreateElement("tool")
				tool.CreateElement("name").SetText(t.Name)
				if t.Version != "" {
					tool.CreateElement("version").SetText(t.Version)
				}
			}
		}
	}

	components := root.CreateElement("components")
	for _, c := range bom.Components {
		appendComponent(components, c)
	}

	if len(bom.Dependencies) > 0 {
		dependencies := root.CreateElement("dependencies")
		for _, d := range bom.Dependencies {
			dependency := dependencies.CreateElement("dependency")
			dependency.CreateAttr("ref", d.Ref)
			for _, child := range d.DependsOn {
				childElem := dependency.CreateElement("dependency")
				childElem.CreateAttr("ref", child.Ref)
				if child.Scope != "" {
					childElem.CreateAttr("scope", string(child.Scope))
				}
			}
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func appendComponent(parent *etree.Element, c *cdx.Component) {
	component := parent.CreateElement("component")
	component.CreateAttr("type", string(c.Type))
	component.CreateAttr("bom-ref", c.BOMRef)

	// CycloneDX XML is order-sensitive: supplier precedes name and version.
	if c.Supplier != nil {
		supplier := component.CreateElement("supplier")
		supplier.CreateElement("name").SetText(c.Supplier.Name)
	}
	component.CreateElement("name").SetText(c.Name)
	if c.Version != nil {
		component.CreateElement("version").SetText(*c.Version)
	}
	if c.Description != nil {
		component.CreateElement("description").SetText(*c.Description)
	}
	if len(c.Hashes) > 0 {
		hashes := component.CreateElement("hashes")
		for _, h := range c.Hashes {
			hash := hashes.CreateElement("hash")
			hash.CreateAttr("alg", string(h.Alg))
			hash.SetText(h.Content)
		}
	}
	if c.Copyright != nil {
		component.CreateElement("copyright").SetText(*c.Copyright)
	}
}
