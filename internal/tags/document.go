package tags

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/natefinch/atomic"
)

const (
	rootElement = "tagstore"
	tagElement  = "tag"
)

// writeFile replaces a file atomically; tests swap it to count writes.
var writeFile = atomic.WriteFile

type attr struct {
	Key, Value string
}

// record is one <tag> element in document order.
type record struct {
	Name  string
	Attrs []attr
}

// parseDocument decodes a tag document. Elements it cannot use are reported
// in skipped rather than failing the whole document.
func parseDocument(data []byte) (recs []record, skipped []string, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	if root.Tag != rootElement {
		return nil, nil, fmt.Errorf("%w: root element is <%s>, want <%s>", ErrMalformedDocument, root.Tag, rootElement)
	}

	for _, el := range root.ChildElements() {
		if el.Tag != tagElement {
			skipped = append(skipped, fmt.Sprintf("unexpected element <%s>", el.Tag))
			continue
		}
		name := el.SelectAttrValue(AttrName, "")
		if name == "" {
			skipped = append(skipped, "tag element without name")
			continue
		}
		rec := record{Name: name}
		for _, a := range el.Attr {
			key := a.Key
			if a.Space != "" {
				key = a.Space + ":" + a.Key
			}
			rec.Attrs = append(rec.Attrs, attr{Key: key, Value: a.Value})
		}
		recs = append(recs, rec)
	}
	return recs, skipped, nil
}

// encodeDocument renders records as an indented tag document.
func encodeDocument(recs []record) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootElement)
	for _, rec := range recs {
		el := root.CreateElement(tagElement)
		el.CreateAttr(AttrName, rec.Name)
		for _, a := range rec.Attrs {
			if a.Key == AttrName {
				continue
			}
			el.CreateAttr(a.Key, a.Value)
		}
	}
	doc.Indent(2)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode tag document: %w", err)
	}
	return buf.Bytes(), nil
}

// writeDocument replaces the file at path with recs in one atomic write.
func writeDocument(path string, recs []record) error {
	data, err := encodeDocument(recs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create tag store dir: %w", err)
	}
	if err := writeFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write tag store: %w", err)
	}
	return nil
}
