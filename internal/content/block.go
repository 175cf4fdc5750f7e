package content

import "slices"

// BlockType identifies the kind of content a block carries.
type BlockType string

const (
	BlockHeading1 BlockType = "heading1"
	BlockHeading2 BlockType = "heading2"
	BlockText     BlockType = "text"
	BlockImage    BlockType = "image"
	BlockVideo    BlockType = "video"
)

// BlockTypes lists every known block type in palette order.
var BlockTypes = []BlockType{BlockHeading1, BlockHeading2, BlockText, BlockImage, BlockVideo}

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	return slices.Contains(BlockTypes, t)
}

// IsMedia reports whether the block's payload is a media URL.
func (t BlockType) IsMedia() bool {
	return t == BlockImage || t == BlockVideo
}

// Metadata holds type-specific extras. URL overrides Block.Content as the
// media source when set.
type Metadata struct {
	URL    string `json:"url,omitempty"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// BlockStyles are per-block visual overrides. Values are CSS values.
type BlockStyles struct {
	FontSize        string `json:"fontSize,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextAlign       string `json:"textAlign,omitempty"`
	FontWeight      string `json:"fontWeight,omitempty"`
	Padding         string `json:"padding,omitempty"`
	Margin          string `json:"margin,omitempty"`
	Width           string `json:"width,omitempty"`
	Height          string `json:"height,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
}

// Block is a leaf content unit.
type Block struct {
	ID       string       `json:"id"`
	Type     BlockType    `json:"type"`
	Content  string       `json:"content"`
	Metadata *Metadata    `json:"metadata,omitempty"`
	Styles   *BlockStyles `json:"styles,omitempty"`
}

// Source returns the renderable media source: metadata.url wins over content.
func (b Block) Source() string {
	if b.Metadata != nil && b.Metadata.URL != "" {
		return b.Metadata.URL
	}
	return b.Content
}

// Body is the typed payload of a block. It is one of Heading, RichText or
// Media.
type Body interface {
	isBody()
}

// Heading is the payload of heading1 and heading2 blocks.
type Heading struct {
	Level int
	Text  string
}

// RichText is the payload of text blocks: trusted, pre-sanitized markup.
type RichText struct {
	HTML string
}

// Media is the payload of image and video blocks.
type Media struct {
	Kind   BlockType
	Src    string
	Alt    string
	Width  int
	Height int
}

func (Heading) isBody()  {}
func (RichText) isBody() {}
func (Media) isBody()    {}

// Body projects the block onto its typed payload. Blocks of unknown type
// return nil.
func (b Block) Body() Body {
	switch b.Type {
	case BlockHeading1:
		return Heading{Level: 1, Text: b.Content}
	case BlockHeading2:
		return Heading{Level: 2, Text: b.Content}
	case BlockText:
		return RichText{HTML: b.Content}
	case BlockImage, BlockVideo:
		m := Media{Kind: b.Type, Src: b.Source()}
		if b.Metadata != nil {
			m.Alt = b.Metadata.Alt
			m.Width = b.Metadata.Width
			m.Height = b.Metadata.Height
		}
		return m
	}
	return nil
}

func (b Block) clone() Block {
	if b.Metadata != nil {
		md := *b.Metadata
		b.Metadata = &md
	}
	if b.Styles != nil {
		st := *b.Styles
		b.Styles = &st
	}
	return b
}
