package loam

// TreeMetadata represents the frontmatter of a tree document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type TreeMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	IsTemplate  bool   `json:"is_template" mapstructure:"is_template"`
	IsPublic    bool   `json:"is_public" mapstructure:"is_public"`

	// Nodes stays raw: numeric fields arrive as json.Number under strict mode
	// and are decoded per record by the loader.
	Nodes []any `json:"nodes" mapstructure:"nodes"`
}

// NodeRecord is the on-disk shape of a single node.
type NodeRecord struct {
	ID          string         `mapstructure:"id"`
	ParentID    string         `mapstructure:"parent_id"`
	Parent      string         `mapstructure:"parent"`
	Kind        string         `mapstructure:"kind"`
	Type        string         `mapstructure:"type"`
	Name        string         `mapstructure:"name"`
	Probability *float64       `mapstructure:"probability"`
	Cost        float64        `mapstructure:"cost"`
	Utility     *float64       `mapstructure:"utility"`
	Description string         `mapstructure:"description"`
	PositionX   int            `mapstructure:"position_x"`
	PositionY   int            `mapstructure:"position_y"`
	Metadata    map[string]any `mapstructure:"metadata"`
}
