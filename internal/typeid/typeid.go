package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixLayer     = "layer"
	PrefixGroup     = "group"
	PrefixRectangle = "rect"
	PrefixEllipse   = "ellipse"
	PrefixPath      = "path"
	PrefixText      = "text"
	PrefixSession   = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewLayerID() string     { return New(PrefixLayer) }
func NewGroupID() string     { return New(PrefixGroup) }
func NewRectangleID() string { return New(PrefixRectangle) }
func NewEllipseID() string   { return New(PrefixEllipse) }
func NewPathID() string      { return New(PrefixPath) }
func NewTextID() string      { return New(PrefixText) }
func NewSessionID() string   { return New(PrefixSession) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
