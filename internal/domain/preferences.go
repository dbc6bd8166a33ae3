package domain

// ViewMode selects how a directory is presented.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// SortBy selects the listing sort key.
type SortBy string

const (
	SortByName     SortBy = "name"
	SortBySize     SortBy = "size"
	SortByModified SortBy = "modified"
	SortByType     SortBy = "type"
)

// SortOrder selects the listing sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ViewPreferences is a fully resolved set of display settings for one
// directory.
type ViewPreferences struct {
	ViewMode     ViewMode  `json:"viewMode"`
	SortBy       SortBy    `json:"sortBy"`
	SortOrder    SortOrder `json:"sortOrder"`
	ShowHidden   bool      `json:"showHidden"`
	FoldersFirst bool      `json:"foldersFirst"`
	GridSize     int       `json:"gridSize"`
}

// DefaultPreferences returns the built-in global defaults.
func DefaultPreferences() ViewPreferences {
	return ViewPreferences{
		ViewMode:     ViewList,
		SortBy:       SortByName,
		SortOrder:    SortAsc,
		ShowHidden:   false,
		FoldersFirst: true,
		GridSize:     96,
	}
}

// PartialPreferences is a sparse per-directory overlay. Pointer fields
// distinguish "unset" from a zero value; a set field overrides the
// global default for that directory only.
type PartialPreferences struct {
	ViewMode     *ViewMode  `json:"viewMode,omitempty"`
	SortBy       *SortBy    `json:"sortBy,omitempty"`
	SortOrder    *SortOrder `json:"sortOrder,omitempty"`
	ShowHidden   *bool      `json:"showHidden,omitempty"`
	FoldersFirst *bool      `json:"foldersFirst,omitempty"`
	GridSize     *int       `json:"gridSize,omitempty"`
}

// IsEmpty reports whether no field of the overlay is set.
func (p PartialPreferences) IsEmpty() bool {
	return p.ViewMode == nil && p.SortBy == nil && p.SortOrder == nil &&
		p.ShowHidden == nil && p.FoldersFirst == nil && p.GridSize == nil
}

// Merge folds other into p field by field. Set fields of other win;
// unset fields of other leave p untouched. This is a one-level merge,
// never a replace.
func (p *PartialPreferences) Merge(other PartialPreferences) {
	if other.ViewMode != nil {
		p.ViewMode = other.ViewMode
	}
	if other.SortBy != nil {
		p.SortBy = other.SortBy
	}
	if other.SortOrder != nil {
		p.SortOrder = other.SortOrder
	}
	if other.ShowHidden != nil {
		p.ShowHidden = other.ShowHidden
	}
	if other.FoldersFirst != nil {
		p.FoldersFirst = other.FoldersFirst
	}
	if other.GridSize != nil {
		p.GridSize = other.GridSize
	}
}

// Apply resolves the overlay against a base set of preferences,
// overlay fields winning per-field.
func (p PartialPreferences) Apply(base ViewPreferences) ViewPreferences {
	if p.ViewMode != nil {
		base.ViewMode = *p.ViewMode
	}
	if p.SortBy != nil {
		base.SortBy = *p.SortBy
	}
	if p.SortOrder != nil {
		base.SortOrder = *p.SortOrder
	}
	if p.ShowHidden != nil {
		base.ShowHidden = *p.ShowHidden
	}
	if p.FoldersFirst != nil {
		base.FoldersFirst = *p.FoldersFirst
	}
	if p.GridSize != nil {
		base.GridSize = *p.GridSize
	}
	return base
}
