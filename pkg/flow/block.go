package flow

import "slices"

// BlockType identifies the survey block family a node renders.
// The layout pipeline only uses the type to estimate unmeasured node sizes;
// the actual field rendering lives in the host.
type BlockType string

const (
	BlockTypeAgreement   BlockType = "agreement"
	BlockTypePatientAuth BlockType = "patient-auth"
	BlockTypeRadio       BlockType = "radio"
	BlockTypeCheckbox    BlockType = "checkbox"
	BlockTypeSelect      BlockType = "select"
	BlockTypeMatrix      BlockType = "matrix"
	BlockTypeText        BlockType = "text"
	BlockTypeTextarea    BlockType = "textarea"
	BlockTypeRange       BlockType = "range"
	BlockTypeFileUpload  BlockType = "file-upload"
	BlockTypeMarkdown    BlockType = "markdown"
)

// NavigationRule routes the flow to a target node when a condition on the
// block's answer holds. Rules become conditional edges in the graph; the
// condition text doubles as the edge label.
type NavigationRule struct {
	Condition string `json:"condition" bson:"condition"`
	Target    string `json:"target" bson:"target"`
}

// BlockContent is the opaque payload of a block node.
//
// The layout pipeline never interprets answers or validation; it reads only
// the fields that influence a block's on-canvas footprint: type, label and
// description lengths, option and row counts, and whether navigation rules
// are present.
type BlockContent struct {
	Type        BlockType        `json:"type" bson:"type"`
	Label       string           `json:"label" bson:"label"`
	Description string           `json:"description,omitempty" bson:"description,omitempty"`
	Options     []string         `json:"options,omitempty" bson:"options,omitempty"`
	Rows        []string         `json:"rows,omitempty" bson:"rows,omitempty"`
	Required    bool             `json:"required,omitempty" bson:"required,omitempty"`
	Rules       []NavigationRule `json:"rules,omitempty" bson:"rules,omitempty"`
}

// OptionCount returns the number of selectable options.
func (b *BlockContent) OptionCount() int { return len(b.Options) }

// RowCount returns the number of matrix rows.
func (b *BlockContent) RowCount() int { return len(b.Rows) }

// HasRules reports whether the block carries navigation rules.
func (b *BlockContent) HasRules() bool { return len(b.Rules) > 0 }

func (b BlockContent) clone() BlockContent {
	b.Options = slices.Clone(b.Options)
	b.Rows = slices.Clone(b.Rows)
	b.Rules = slices.Clone(b.Rules)
	return b
}
