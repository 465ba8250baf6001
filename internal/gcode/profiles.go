package gcode

// Profile describes the dialect of a cutting table controller.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       string `json:"units"` // "mm" or "inches"

	StartCode []string `json:"start_code"`
	EndCode   []string `json:"end_code"` // [SafeZ] is replaced by the safe height

	// HeadDown and HeadUp engage and release the scoring wheel. When empty,
	// the head is moved on Z to the score depth and back to the safe height.
	HeadDown string `json:"head_down"`
	HeadUp   string `json:"head_up"`

	RapidMove string `json:"rapid_move"`
	FeedMove  string `json:"feed_move"`

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"`

	DecimalPlaces int  `json:"decimal_places"`
	IsBuiltIn     bool `json:"-"`
}

// Profiles are the built-in controller dialects.
var Profiles = []Profile{
	{
		Name:          "Grbl",
		Description:   "Grbl based cutting tables",
		Units:         "mm",
		StartCode:     []string{"G90", "G21", "G17"},
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		HeadDown:      "M3 S1000",
		HeadUp:        "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		CommentPrefix: ";",
		DecimalPlaces: 3,
		IsBuiltIn:     true,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		Units:         "mm",
		StartCode:     []string{"G90", "G21", "G17", "G94"},
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		HeadDown:      "M64 P0",
		HeadUp:        "M65 P0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
		IsBuiltIn:     true,
	},
	{
		Name:          "Generic",
		Description:   "Generic standard GCode, Z controlled scoring head",
		Units:         "mm",
		StartCode:     []string{"G90", "G21"},
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		RapidMove:     "G0",
		FeedMove:      "G1",
		CommentPrefix: ";",
		DecimalPlaces: 3,
		IsBuiltIn:     true,
	},
}

// GetProfile returns a profile by name, searching custom profiles after the
// built-in ones. Unknown names fall back to Generic.
func GetProfile(name string, custom ...Profile) Profile {
	for _, p := range Profiles {
		if p.Name == name {
			return p
		}
	}
	for _, p := range custom {
		if p.Name == name {
			return p
		}
	}
	return Profiles[len(Profiles)-1]
}

// GetProfileNames lists built-in profile names followed by custom ones.
func GetProfileNames(custom ...Profile) []string {
	names := make([]string, 0, len(Profiles)+len(custom))
	for _, p := range Profiles {
		names = append(names, p.Name)
	}
	for _, p := range custom {
		names = append(names, p.Name)
	}
	return names
}
